package model

import "net/http"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeMissingToken        = "MISSING_TOKEN"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeUnknownUser         = "UNKNOWN_USER"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeSuperuserRequired   = "SUPERUSER_REQUIRED"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeAddressInUse        = "ADDRESS_IN_USE"
	ErrCodeDefaultConflict     = "DEFAULT_ADDRESS_CONFLICT"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeOrderNotPayable     = "ORDER_NOT_PAYABLE"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeInvalidPayload      = "INVALID_PAYLOAD"
	ErrCodeProviderUnavailable = "PAYMENT_PROVIDER_UNAVAILABLE"
	ErrCodeProviderRejected    = "PAYMENT_PROVIDER_REJECTED"
	ErrCodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	ErrCodeImageNotFound       = "IMAGE_NOT_FOUND"
	ErrCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// ErrorKind classifies a DomainError for translation at the transport boundary.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindInvalid
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooLarge
	KindUnsupportedMedia
	KindBadGateway
	KindUnavailable
)

// HTTPStatus returns the status code a handler should answer with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalid:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindBadGateway:
		return http.StatusBadGateway
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the same request later.
func (k ErrorKind) Retryable() bool {
	return k == KindUnavailable
}

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that wrapped copies of a sentinel still satisfy errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of the sentinel carrying cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// WithMessage returns a copy of the sentinel with a more specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Common domain errors
var (
	ErrInvalidJSON = NewDomainError(KindInvalid, ErrCodeInvalidJSON, "Request body is not valid JSON")
	ErrValidation  = NewDomainError(KindInvalid, ErrCodeValidation, "Request validation failed")

	ErrMissingToken      = NewDomainError(KindUnauthorized, ErrCodeMissingToken, "Authorization bearer token is required")
	ErrInvalidToken      = NewDomainError(KindUnauthorized, ErrCodeInvalidToken, "Invalid authentication token")
	ErrTokenExpired      = NewDomainError(KindUnauthorized, ErrCodeTokenExpired, "Authentication token has expired")
	ErrUnknownUser       = NewDomainError(KindUnauthorized, ErrCodeUnknownUser, "User not found or inactive")
	ErrForbidden         = NewDomainError(KindForbidden, ErrCodeForbidden, "Resource belongs to another user")
	ErrSuperuserRequired = NewDomainError(KindForbidden, ErrCodeSuperuserRequired, "Superuser privileges required")

	ErrAddressNotFound = NewDomainError(KindNotFound, ErrCodeAddressNotFound, "Address not found")
	ErrAddressInUse    = NewDomainError(KindConflict, ErrCodeAddressInUse, "Address is referenced by an order")
	ErrDefaultConflict = NewDomainError(KindConflict, ErrCodeDefaultConflict, "Another default address was set concurrently")

	// ErrProductNotFound is a bad checkout request; ErrProductMissing is a catalogue miss.
	ErrProductNotFound = NewDomainError(KindInvalid, ErrCodeProductNotFound, "One or more products not found")
	ErrProductMissing  = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrInvalidQuantity = NewDomainError(KindInvalid, ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrOrderNotFound   = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrOrderNotPayable = NewDomainError(KindConflict, ErrCodeOrderNotPayable, "Order is no longer awaiting payment")
	ErrInvalidAmount   = NewDomainError(KindInvalid, ErrCodeInvalidAmount, "Amount cannot be charged in this currency")

	ErrPaymentNotFound     = NewDomainError(KindNotFound, ErrCodePaymentNotFound, "No payment matches the provider payment id")
	ErrInvalidSignature    = NewDomainError(KindInvalid, ErrCodeInvalidSignature, "Webhook signature verification failed")
	ErrInvalidPayload      = NewDomainError(KindInvalid, ErrCodeInvalidPayload, "Webhook payload could not be decoded")
	ErrProviderUnavailable = NewDomainError(KindUnavailable, ErrCodeProviderUnavailable, "Payment provider is temporarily unavailable")
	ErrProviderRejected    = NewDomainError(KindBadGateway, ErrCodeProviderRejected, "Payment provider rejected the request")

	ErrUnsupportedMedia   = NewDomainError(KindUnsupportedMedia, ErrCodeUnsupportedMedia, "Only image uploads are accepted")
	ErrPayloadTooLarge    = NewDomainError(KindTooLarge, ErrCodePayloadTooLarge, "Upload exceeds the maximum size")
	ErrImageNotFound      = NewDomainError(KindNotFound, ErrCodeImageNotFound, "Image not found")
	ErrStorageUnavailable = NewDomainError(KindUnavailable, ErrCodeStorageUnavailable, "Image storage is temporarily unavailable")
)
