package service

import "parkit/internal/db"

// Reservation events published to the notification hook.
const (
	EventConfirmed  = "confirmed"
	EventCheckedIn  = "checked in"
	EventCheckedOut = "checked out"
	EventCancelled  = "cancelled"
)

// Notifier is the outbound notification hook. Implementations must not
// block the calling transition and must swallow delivery failures (logging
// them is their business).
type Notifier interface {
	ReservationEvent(res *db.Reservation, event string)
}

// NoopNotifier drops every event. Used in tests and when no delivery
// channel is configured.
type NoopNotifier struct{}

func (NoopNotifier) ReservationEvent(*db.Reservation, string) {}
