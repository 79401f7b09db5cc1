package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
	"parkit/internal/repository"
)

// BillingService derives amounts from parked duration at a fixed hourly
// rate and records payments at check-out. The Stripe gateway is optional;
// without it payments are recorded as settled on site.
type BillingService struct {
	store  repository.Store
	stripe *StripeService
	rate   int64
	log    zerolog.Logger
}

func NewBillingService(store repository.Store, stripe *StripeService, hourlyRate int64, log zerolog.Logger) *BillingService {
	return &BillingService{
		store:  store,
		stripe: stripe,
		rate:   hourlyRate,
		log:    log.With().Str("component", "billing").Logger(),
	}
}

// ComputeAmount is a pure function of the billable hours.
func (s *BillingService) ComputeAmount(durationHours int) int64 {
	return int64(durationHours) * s.rate
}

// BillableHours rounds the parked duration up to whole hours, minimum one.
func BillableHours(entry, exit time.Time) int {
	d := exit.Sub(entry)
	hours := int(d / time.Hour)
	if d%time.Hour > 0 {
		hours++
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}

// RecordPayment persists the payment for a completed reservation. The
// reservation must already be in "completed" status; anything else is a
// PaymentRecordError, since billing must never run ahead of the lifecycle.
func (s *BillingService) RecordPayment(ctx context.Context, reservationID, userID int64, durationHours int) (*db.Payment, error) {
	res, err := s.store.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("reservation %d: %w: %w", reservationID, apperrors.ErrPaymentRecord, err)
	}
	if res.Status != db.StatusCompleted {
		return nil, fmt.Errorf("reservation %d is %s, not completed: %w",
			reservationID, res.Status, apperrors.ErrPaymentRecord)
	}

	payment := &db.Payment{
		ID:            uuid.NewString(),
		ReservationID: reservationID,
		UserID:        userID,
		Amount:        s.ComputeAmount(durationHours),
		DurationHours: durationHours,
		Status:        db.PaymentCompleted,
	}

	var gatewayErr error
	if s.stripe != nil && s.stripe.Enabled() {
		url, err := s.stripe.CreateCheckoutSession(ctx, payment.Amount,
			fmt.Sprintf("Parking reservation %s", res.Code))
		if err != nil {
			payment.Status = db.PaymentFailed
			gatewayErr = fmt.Errorf("stripe checkout for reservation %s: %w", res.Code, apperrors.ErrPaymentRecord)
			s.log.Error().Err(err).Str("code", res.Code).Msg("payment gateway failed")
		} else {
			payment.CheckoutURL = url
		}
	}

	if err := s.store.InsertPayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("inserting payment for reservation %d: %w", reservationID, err)
	}
	return payment, gatewayErr
}
