package service

import (
	"context"
	"fmt"

	"aroma-shop/internal/metrics"
	"aroma-shop/internal/model"
	"aroma-shop/internal/payment"
	"aroma-shop/internal/repository"

	"github.com/rs/zerolog"
)

// transition describes the conditional status moves an event applies.
type transition struct {
	payment     model.PaymentStatus
	paymentFrom []model.PaymentStatus
	order       model.OrderStatus
	orderFrom   []model.OrderStatus
}

var transitions = map[payment.EventType]transition{
	payment.EventPaymentSucceeded: {
		payment:     model.PaymentStatusSucceeded,
		paymentFrom: []model.PaymentStatus{model.PaymentStatusCreated, model.PaymentStatusFailed},
		order:       model.OrderStatusPaid,
		orderFrom:   []model.OrderStatus{model.OrderStatusPending, model.OrderStatusFailed, model.OrderStatusCancelled},
	},
	payment.EventPaymentFailed: {
		payment:     model.PaymentStatusFailed,
		paymentFrom: []model.PaymentStatus{model.PaymentStatusCreated},
		order:       model.OrderStatusFailed,
		orderFrom:   []model.OrderStatus{model.OrderStatusPending},
	},
}

// webhookService implements WebhookService.
type webhookService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	provider    payment.Provider
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewWebhookService creates a new webhook reconciliation service.
func NewWebhookService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	provider payment.Provider,
	m *metrics.Metrics,
	logger zerolog.Logger,
) WebhookService {
	return &webhookService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		provider:    provider,
		metrics:     m,
		logger:      logger.With().Str("service", "webhook").Logger(),
	}
}

// HandleEvent verifies and applies a provider event. Nothing is written unless the
// signature verifies. Redelivered events are reported as duplicates and events
// that arrive after the payment settled otherwise as ignored.
func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, signature string) (*model.WebhookResult, error) {
	event, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook rejected")
		s.metrics.Webhook("unverified", "rejected")
		return nil, err
	}

	result := &model.WebhookResult{
		Status:    "ok",
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	t, ok := transitions[event.Type]
	if !ok {
		result.Outcome = model.WebhookIgnored
		s.logger.Debug().Str("event_id", event.ID).Str("event_type", string(event.Type)).Msg("webhook event ignored")
		s.metrics.Webhook(string(event.Type), string(result.Outcome))
		return result, nil
	}

	if event.PaymentID == "" {
		s.metrics.Webhook(string(event.Type), "rejected")
		return nil, model.ErrInvalidPayload.WithMessage("Event does not reference a payment")
	}

	if err := s.reconcile(ctx, event, t, result); err != nil {
		s.logger.Warn().Err(err).
			Str("event_id", event.ID).
			Str("provider_payment_id", event.PaymentID).
			Msg("webhook reconciliation failed")
		s.metrics.Webhook(string(event.Type), "failed")
		return nil, err
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("provider_payment_id", event.PaymentID).
		Int64("order_id", result.OrderID).
		Str("outcome", string(result.Outcome)).
		Msg("webhook processed")
	s.metrics.Webhook(string(event.Type), string(result.Outcome))

	return result, nil
}

// reconcile applies t in one transaction. The conditional updates make concurrent or
// repeated deliveries transition the rows at most once.
func (s *webhookService) reconcile(ctx context.Context, event *payment.Event, t transition, result *model.WebhookResult) (err error) {
	tx, err := s.paymentRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}
	defer func() { rollback(ctx, tx, err, s.logger) }()

	provider := s.provider.Name()
	p, err := s.paymentRepo.TransitionStatus(ctx, tx, provider, event.PaymentID, t.payment, t.paymentFrom...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if p == nil {
		existing, err := s.paymentRepo.GetByProviderID(ctx, tx, provider, event.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to look up payment: %w", err)
		}
		if existing == nil {
			return model.ErrPaymentNotFound
		}
		// Already in the target state means a redelivery; any other state makes the event stale.
		result.Outcome = model.WebhookDuplicate
		if existing.Status != t.payment {
			result.Outcome = model.WebhookIgnored
			s.logger.Info().
				Str("event_id", event.ID).
				Str("provider_payment_id", event.PaymentID).
				Str("payment_status", string(existing.Status)).
				Msg("stale webhook event for settled payment")
		}
		result.OrderID = existing.OrderID
		result.PaymentID = existing.ID
		return commit(ctx, tx)
	}

	changed, err := s.orderRepo.TransitionStatus(ctx, tx, p.OrderID, t.order, t.orderFrom...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if !changed {
		s.logger.Warn().
			Int64("order_id", p.OrderID).
			Str("to", string(t.order)).
			Msg("order not in a state this event moves")
	}

	if err = commit(ctx, tx); err != nil {
		return err
	}

	result.Outcome = model.WebhookApplied
	result.OrderID = p.OrderID
	result.PaymentID = p.ID
	return nil
}
