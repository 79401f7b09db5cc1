package errors

import "errors"

// Domain errors returned by the reservation core. Handlers translate them
// to HTTP statuses; none of them should ever crash the process.
var (
	// ErrInvalidTimeWindow means end <= start or the start lies too far in
	// the past.
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrNoAvailableSlot means no slot satisfies the non-overlap rule for
	// the requested window. Terminal for the request.
	ErrNoAvailableSlot = errors.New("no available slot")

	ErrReservationNotFound = errors.New("reservation not found")
	ErrSlotNotFound        = errors.New("slot not found")

	// ErrInvalidStateTransition is returned when an operation is attempted
	// from a state that does not permit it, e.g. check-out on a reservation
	// that is not active.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrCheckInWindowViolation = errors.New("check-in outside permitted window")

	// ErrSlotAlreadyOccupied guards the occupancy invariant. It should not
	// occur when allocation holds; callers log it for investigation.
	ErrSlotAlreadyOccupied = errors.New("slot already occupied")

	// ErrConcurrentConflict means an optimistic write lost a race with a
	// concurrent update. Transient; the caller may retry.
	ErrConcurrentConflict = errors.New("concurrent modification conflict")

	ErrPaymentRecord = errors.New("payment record error")

	// ErrDuplicateKey surfaces repository uniqueness violations (email,
	// plate, slot number).
	ErrDuplicateKey = errors.New("duplicate key")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
