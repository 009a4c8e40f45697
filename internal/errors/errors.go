package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingIdentifier is returned when neither an exam id nor a charge id is supplied.
	ErrMissingIdentifier = errors.New("either exam_id or charge_id is required")
	// ErrAmbiguousIdentifier is returned when both an exam id and a charge id are supplied.
	ErrAmbiguousIdentifier = errors.New("exactly one of exam_id or charge_id must be given")
	// ErrUnauthorized is returned on a webhook signature or operator secret mismatch.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrProviderUnavailable is returned when the payment provider cannot be reached or times out.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderNotFound is returned when the provider has no charge for the given id.
	ErrProviderNotFound = errors.New("charge not found at provider")
	// ErrProviderMalformed is returned when the provider response cannot be decoded.
	ErrProviderMalformed = errors.New("malformed provider response")
	// ErrLedgerUnavailable is returned when the payment ledger cannot be read or written.
	ErrLedgerUnavailable = errors.New("payment ledger unavailable")
	// ErrPaymentNotFound is returned when no payment record exists at all.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrResultNotFound is returned when no exam result exists for the given exam id.
	ErrResultNotFound = errors.New("exam result not found")
	// ErrInvalidAmount is returned when a charge amount is zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidAPIRef is returned when a correlation reference cannot be parsed.
	ErrInvalidAPIRef = errors.New("invalid api_ref")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrMissingIdentifier):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_IDENTIFIER")
	case errors.Is(err, ErrAmbiguousIdentifier):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "AMBIGUOUS_IDENTIFIER")
	case errors.Is(err, ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_AMOUNT")
	case errors.Is(err, ErrInvalidAPIRef):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_API_REF")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrPaymentNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PAYMENT_NOT_FOUND")
	case errors.Is(err, ErrResultNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "RESULT_NOT_FOUND")
	case errors.Is(err, ErrProviderNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "CHARGE_NOT_FOUND")
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrProviderMalformed):
		return NewHTTPError(http.StatusBadGateway, "could not verify with provider, try later", "PROVIDER_UNAVAILABLE")
	case errors.Is(err, ErrLedgerUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "LEDGER_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
