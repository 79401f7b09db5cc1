package entities

import "parkit/internal/db"

// CheckoutResult is returned by check-out. BillingWarning is set when the
// parking lifecycle completed but the payment could not: the checkout is
// still final, the warning is surfaced to the caller instead of being
// dropped.
type CheckoutResult struct {
	Reservation    *db.Reservation `json:"reservation"`
	Payment        *db.Payment     `json:"payment,omitempty"`
	BillingWarning string          `json:"billing_warning,omitempty"`
}
