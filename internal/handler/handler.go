package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"aroma-shop/internal/auth"
	"aroma-shop/internal/middleware"
	"aroma-shop/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	// retryAfterSeconds is sent with responses the client may retry.
	retryAfterSeconds = "5"
	// maxJSONBytes caps JSON request bodies.
	maxJSONBytes = 1 << 20
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError translates err into the API error body. Domain errors keep their code and
// message; anything else is reported as a generic internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())

	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Str("request_id", requestID).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:         model.ErrCodeInternalError,
			Message:       "Internal server error",
			CorrelationID: requestID,
		})
		return
	}

	status := de.Kind.HTTPStatus()
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Str("code", de.Code).Int("status", status).Str("request_id", requestID).Msg("handler error")

	if de.Kind.Retryable() {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:         de.Code,
		Message:       de.Message,
		CorrelationID: requestID,
	})
}

// decodeJSON reads at most maxJSONBytes of the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.ErrPayloadTooLarge.WithMessage("Request body exceeds the maximum size").Wrap(err)
		}
		return model.ErrInvalidJSON.Wrap(err)
	}
	return nil
}

// currentUser returns the authenticated user or ErrMissingToken.
func currentUser(r *http.Request) (*model.User, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, model.ErrMissingToken
	}
	return user, nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrValidation.WithMessage(name + " must be a positive integer")
	}
	return id, nil
}

// pagination parses the limit and offset query parameters. Missing values are zero and
// the services apply their defaults.
func pagination(r *http.Request) (limit, offset int, err error) {
	query := r.URL.Query()
	if v := query.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, model.ErrValidation.WithMessage("invalid limit parameter")
		}
	}
	if v := query.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return 0, 0, model.ErrValidation.WithMessage("invalid offset parameter")
		}
	}
	return limit, offset, nil
}
