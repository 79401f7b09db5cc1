package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrInvalidTimeWindow, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrReservationNotFound, http.StatusNotFound},
		{ErrSlotNotFound, http.StatusNotFound},
		{ErrNoAvailableSlot, http.StatusConflict},
		{ErrInvalidStateTransition, http.StatusConflict},
		{ErrSlotAlreadyOccupied, http.StatusConflict},
		{ErrConcurrentConflict, http.StatusConflict},
		{ErrDuplicateKey, http.StatusConflict},
		{ErrCheckInWindowViolation, http.StatusUnprocessableEntity},
		{NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
		// Wrapped sentinels keep their mapping.
		{fmt.Errorf("slot 3: %w", ErrSlotAlreadyOccupied), http.StatusConflict},
		{fmt.Errorf("context: %w", ErrInvalidTimeWindow), http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "err=%v", tt.err)
	}
}
