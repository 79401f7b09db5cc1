package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parkit/internal/db"
	"parkit/internal/entities"
	apperrors "parkit/internal/errors"
	"parkit/internal/metrics"
	"parkit/internal/repository"
)

// LifecycleService drives reservations through their state machine in
// response to check-in, check-out and expiry events, and keeps the slot
// occupancy flag consistent with the single active reservation on it.
type LifecycleService struct {
	store    repository.Store
	billing  *BillingService
	notifier Notifier
	log      zerolog.Logger

	// graceBefore is how early a driver may check in ahead of the window.
	graceBefore time.Duration
	now         func() time.Time
}

func NewLifecycleService(store repository.Store, billing *BillingService, notifier Notifier, graceBefore time.Duration, log zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		store:       store,
		billing:     billing,
		notifier:    notifier,
		log:         log.With().Str("component", "lifecycle").Logger(),
		graceBefore: graceBefore,
		now:         time.Now,
	}
}

// CheckIn transitions confirmed -> active and marks the slot occupied by
// this reservation. The reservation CAS runs first; if the slot then turns
// out to be occupied the transition is compensated and the caller gets
// SlotAlreadyOccupied, which is logged as an invariant violation because
// allocation should have made it impossible.
func (s *LifecycleService) CheckIn(ctx context.Context, code string) (*db.Reservation, error) {
	res, err := s.store.FindReservationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if res.Status != db.StatusConfirmed {
		return nil, fmt.Errorf("check-in requires a confirmed reservation, got %s: %w",
			res.Status, apperrors.ErrInvalidStateTransition)
	}

	now := s.now()
	if now.Before(res.StartTime.Add(-s.graceBefore)) || now.After(res.EndTime) {
		return nil, fmt.Errorf("now %s outside [%s, %s]: %w",
			now.Format(time.RFC3339),
			res.StartTime.Add(-s.graceBefore).Format(time.RFC3339),
			res.EndTime.Format(time.RFC3339),
			apperrors.ErrCheckInWindowViolation)
	}

	entry := now
	err = s.store.UpdateReservationStatus(ctx, res.ID, db.StatusConfirmed, db.StatusActive,
		repository.ReservationUpdate{ActualEntryTime: &entry})
	if err != nil {
		return nil, err
	}

	err = s.store.UpdateSlotOccupancy(ctx, res.SlotID, true, &res.ID, false)
	if err != nil {
		// The slot is occupied even though allocation promised exclusivity.
		// Roll the reservation back and surface the violation.
		s.log.Error().Str("code", code).Int64("slot_id", res.SlotID).
			Msg("invariant violation: slot occupied at check-in")
		if rbErr := s.store.UpdateReservationStatus(ctx, res.ID, db.StatusActive, db.StatusConfirmed,
			repository.ReservationUpdate{}); rbErr != nil {
			s.log.Error().Err(rbErr).Str("code", code).Msg("check-in rollback failed")
		}
		return nil, fmt.Errorf("slot %d: %w", res.SlotID, apperrors.ErrSlotAlreadyOccupied)
	}

	res.Status = db.StatusActive
	res.ActualEntryTime = &entry
	metrics.IncCheckIns()
	s.log.Info().Str("code", code).Int64("slot_id", res.SlotID).Msg("checked in")
	s.notifier.ReservationEvent(res, EventCheckedIn)
	return res, nil
}

// CheckOut transitions active -> completed, frees the slot and records the
// payment. A billing failure does not undo the checkout; it is reported in
// the result as a warning.
func (s *LifecycleService) CheckOut(ctx context.Context, code string) (*entities.CheckoutResult, error) {
	res, err := s.store.FindReservationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if res.Status != db.StatusActive {
		return nil, fmt.Errorf("check-out requires an active reservation, got %s: %w",
			res.Status, apperrors.ErrInvalidStateTransition)
	}
	if res.ActualEntryTime == nil {
		return nil, fmt.Errorf("active reservation %s has no entry time: %w",
			code, apperrors.ErrInvalidStateTransition)
	}

	exit := s.now()
	if exit.Before(*res.ActualEntryTime) {
		exit = *res.ActualEntryTime
	}

	err = s.store.UpdateReservationStatus(ctx, res.ID, db.StatusActive, db.StatusCompleted,
		repository.ReservationUpdate{ActualExitTime: &exit})
	if err != nil {
		return nil, err
	}
	res.Status = db.StatusCompleted
	res.ActualExitTime = &exit

	if err := s.store.UpdateSlotOccupancy(ctx, res.SlotID, false, nil, true); err != nil {
		if !errors.Is(err, apperrors.ErrConcurrentConflict) {
			// Storage failure: the slot may still be flagged occupied.
			s.log.Error().Err(err).Str("code", code).Int64("slot_id", res.SlotID).
				Msg("failed to free slot at check-out")
			return nil, fmt.Errorf("freeing slot %d: %w", res.SlotID, err)
		}
		// The flag was already clear. Occupancy is reconciled, only the
		// bookkeeping was off; log and continue.
		s.log.Warn().Err(err).Str("code", code).Int64("slot_id", res.SlotID).
			Msg("slot was not flagged occupied at check-out")
	}

	result := &entities.CheckoutResult{Reservation: res}
	hours := BillableHours(*res.ActualEntryTime, exit)
	payment, billErr := s.billing.RecordPayment(ctx, res.ID, res.UserID, hours)
	if billErr != nil {
		metrics.IncPaymentsFailed()
		result.BillingWarning = billErr.Error()
		s.log.Warn().Err(billErr).Str("code", code).Msg("checkout completed but billing failed")
	}
	result.Payment = payment

	metrics.IncCheckOuts()
	s.log.Info().Str("code", code).Int("billed_hours", hours).Msg("checked out")
	s.notifier.ReservationEvent(res, EventCheckedOut)
	return result, nil
}

// ExpireStale cancels confirmed reservations whose window ended without a
// check-in. Safe to run concurrently with itself: a reservation that
// already left "confirmed" loses the CAS and is skipped.
func (s *LifecycleService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.store.ListExpiredConfirmed(ctx, s.now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		res := stale[i]
		err := s.store.UpdateReservationStatus(ctx, res.ID, db.StatusConfirmed, db.StatusCancelled,
			repository.ReservationUpdate{})
		if err != nil {
			if errors.Is(err, apperrors.ErrConcurrentConflict) {
				continue
			}
			return expired, err
		}
		expired++
		res.Status = db.StatusCancelled
		s.log.Info().Str("code", res.Code).Time("end", res.EndTime).Msg("reservation expired as no-show")
		s.notifier.ReservationEvent(&res, EventCancelled)
	}
	if expired > 0 {
		metrics.AddExpiredReservations(expired)
	}
	return expired, nil
}
