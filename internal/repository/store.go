package repository

import (
	"context"
	"time"

	"parkit/internal/db"
)

// ReservationUpdate carries the optional fields a status transition may set
// alongside the status itself.
type ReservationUpdate struct {
	ActualEntryTime *time.Time
	ActualExitTime  *time.Time
}

// Store is the persistence boundary of the reservation core. Write methods
// carry expected-prior-state conditions so that status transitions and
// occupancy flips are compare-and-swap operations; a failed condition is
// reported as errors.ErrConcurrentConflict.
type Store interface {
	// Users and staff.
	CreateUser(ctx context.Context, user *db.User) error
	FindUser(ctx context.Context, id int64) (*db.User, error)
	FindUserByEmail(ctx context.Context, email string) (*db.User, error)
	CreateStaff(ctx context.Context, staff *db.StaffAccount) error
	FindStaffByEmail(ctx context.Context, email string) (*db.StaffAccount, error)

	// Slot registry.
	CreateSlot(ctx context.Context, slot *db.Slot) error
	FindSlot(ctx context.Context, id int64) (*db.Slot, error)
	FindSlotByNumber(ctx context.Context, number string) (*db.Slot, error)
	// ListSlots returns all slots ordered by slot number.
	ListSlots(ctx context.Context) ([]db.Slot, error)
	// UpdateSlotOccupancy flips the occupancy flag, conditioned on the
	// current flag being expectOccupied.
	UpdateSlotOccupancy(ctx context.Context, slotID int64, occupied bool, occupantID *int64, expectOccupied bool) error

	// Reservation ledger.
	//
	// ReserveSlot performs the serialized check-then-insert for the slot
	// named in the record: within one critical section it verifies that no
	// confirmed or active reservation overlaps [StartTime, EndTime) on
	// that slot and inserts the record. An overlap is reported as
	// errors.ErrNoAvailableSlot for that slot.
	ReserveSlot(ctx context.Context, res *db.Reservation) error
	FindOverlappingReservations(ctx context.Context, slotID int64, start, end time.Time, statuses []string) ([]db.Reservation, error)
	FindReservation(ctx context.Context, id int64) (*db.Reservation, error)
	FindReservationByCode(ctx context.Context, code string) (*db.Reservation, error)
	ListUserReservations(ctx context.Context, userID int64) ([]db.Reservation, error)
	ListReservations(ctx context.Context) ([]db.Reservation, error)
	// ListExpiredConfirmed returns confirmed reservations whose end time
	// lies at or before the cutoff.
	ListExpiredConfirmed(ctx context.Context, cutoff time.Time) ([]db.Reservation, error)
	// UpdateReservationStatus transitions id from expected to next,
	// applying upd, iff the current status equals expected.
	UpdateReservationStatus(ctx context.Context, id int64, expected, next string, upd ReservationUpdate) error

	// Payments and derived stats.
	InsertPayment(ctx context.Context, payment *db.Payment) error
	FindPaymentByReservation(ctx context.Context, reservationID int64) (*db.Payment, error)
	AdminStats(ctx context.Context) (*db.AdminStats, error)

	// Feedback.
	CreateFeedback(ctx context.Context, fb *db.Feedback) error
	ListFeedback(ctx context.Context) ([]db.Feedback, error)
}
