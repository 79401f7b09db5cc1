package entities

import "time"

// ReservationRequest is what the allocation engine needs to place a
// booking. SlotNumber is an optional preference; empty means any slot.
type ReservationRequest struct {
	UserID       int64     `json:"user_id"`
	VehiclePlate string    `json:"vehicle_plate"`
	SlotNumber   string    `json:"slot_number,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}
