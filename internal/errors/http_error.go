package errors

import (
	"errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// HTTPStatus maps a domain error to the status the routing layer should
// answer with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidTimeWindow):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrReservationNotFound), errors.Is(err, ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoAvailableSlot),
		errors.Is(err, ErrInvalidStateTransition),
		errors.Is(err, ErrSlotAlreadyOccupied),
		errors.Is(err, ErrConcurrentConflict),
		errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrCheckInWindowViolation):
		return http.StatusUnprocessableEntity
	default:
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.Code
		}
		return http.StatusInternalServerError
	}
}
