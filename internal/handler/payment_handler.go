package handler

import (
	"errors"
	"io"
	"net/http"

	"aroma-shop/internal/model"
	"aroma-shop/internal/service"

	"github.com/rs/zerolog"
)

const (
	// maxWebhookBytes bounds the raw webhook body read before signature verification.
	maxWebhookBytes = 64 << 10

	idempotencyKeyHeader = "Idempotency-Key"
	signatureHeader      = "Stripe-Signature"
)

// PaymentHandler handles checkout and provider webhooks.
type PaymentHandler struct {
	checkout service.CheckoutService
	webhooks service.WebhookService
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(checkout service.CheckoutService, webhooks service.WebhookService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		webhooks: webhooks,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// Checkout handles POST /payments/checkout. An Idempotency-Key header makes retries
// return the same order and payment.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	req.IdempotencyKey = r.Header.Get(idempotencyKeyHeader)

	resp, err := h.checkout.Checkout(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Webhook handles POST /payments/webhook. The raw body is needed for signature checks.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, model.ErrPayloadTooLarge.Wrap(err), h.logger)
			return
		}
		writeError(w, r, model.ErrInvalidPayload.Wrap(err), h.logger)
		return
	}

	result, err := h.webhooks.HandleEvent(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
