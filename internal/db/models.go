package db

import "time"

// Reservation statuses. A reservation is born "confirmed" once a slot has
// been allocated; "pending" is kept for records created before allocation
// finishes (imports, two-phase clients).
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Staff roles.
const (
	RoleAdmin    = "admin"
	RoleSecurity = "security"
)

// Slot is a physical parking space. IsOccupied reflects actual physical
// occupancy and is mutated only on check-in/check-out, never by allocation.
type Slot struct {
	ID                    int64     `json:"id"`
	SlotNumber            string    `json:"slot_number"`
	Level                 string    `json:"level"`
	IsOccupied            bool      `json:"is_occupied"`
	OccupantReservationID *int64    `json:"occupant_reservation_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type Reservation struct {
	ID              int64      `json:"id"`
	Code            string     `json:"code"`
	UserID          int64      `json:"user_id"`
	SlotID          int64      `json:"slot_id"`
	VehiclePlate    string     `json:"vehicle_plate"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationHours   int        `json:"duration_hours"`
	ActualEntryTime *time.Time `json:"actual_entry_time,omitempty"`
	ActualExitTime  *time.Time `json:"actual_exit_time,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Payment is written exactly once per completed checkout and never updated.
type Payment struct {
	ID            string    `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id"`
	Amount        int64     `json:"amount"`
	DurationHours int       `json:"duration_hours"`
	Status        string    `json:"status"`
	CheckoutURL   string    `json:"checkout_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	PlateNumber  string    `json:"plate_number"`
	VehicleModel string    `json:"vehicle_model"`
	VehicleColor string    `json:"vehicle_color,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StaffAccount covers both admin and security logins.
type StaffAccount struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Rating    int       `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminStats is a read model derived from the reservation and payment
// ledgers on demand. There is no stored counter to keep in sync.
type AdminStats struct {
	TotalIncome   int64 `json:"total_income"`
	TotalBookings int64 `json:"total_bookings"`
}
