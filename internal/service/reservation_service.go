package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkit/internal/db"
	"parkit/internal/entities"
	apperrors "parkit/internal/errors"
	"parkit/internal/metrics"
	"parkit/internal/repository"
	"parkit/internal/utils"
)

// ReservationService is the allocation engine: it decides which slot a
// requested time window may claim and writes the ledger entry. Allocation
// never touches the occupancy flag; that belongs to the lifecycle.
type ReservationService struct {
	store    repository.Store
	notifier Notifier
	log      zerolog.Logger

	// pastGrace is how far in the past a start time may lie.
	pastGrace time.Duration
	now       func() time.Time
}

func NewReservationService(store repository.Store, notifier Notifier, pastGrace time.Duration, log zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:     store,
		notifier:  notifier,
		log:       log.With().Str("component", "allocation").Logger(),
		pastGrace: pastGrace,
		now:       time.Now,
	}
}

// Reserve allocates a slot for the requested window and inserts a
// confirmed reservation. Candidates are tried in slot-number order so
// allocation is deterministic; the storage layer serializes the
// check-then-insert per slot, so two overlapping requests cannot both win
// the same slot.
func (s *ReservationService) Reserve(ctx context.Context, req *entities.ReservationRequest) (*db.Reservation, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, fmt.Errorf("end %s is not after start %s: %w",
			req.EndTime.Format(time.RFC3339), req.StartTime.Format(time.RFC3339),
			apperrors.ErrInvalidTimeWindow)
	}
	if req.StartTime.Before(s.now().Add(-s.pastGrace)) {
		return nil, fmt.Errorf("start %s is in the past: %w",
			req.StartTime.Format(time.RFC3339), apperrors.ErrInvalidTimeWindow)
	}

	plate := utils.NormalizePlate(req.VehiclePlate)
	if plate == "" {
		user, err := s.store.FindUser(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("user %d: %w", req.UserID,
				apperrors.NewHTTPError(http.StatusNotFound, "user not found"))
		}
		plate = utils.NormalizePlate(user.PlateNumber)
	}

	candidates, err := s.candidateSlots(ctx, req.SlotNumber)
	if err != nil {
		return nil, err
	}

	sawTransientConflict := false
	for _, slot := range candidates {
		// Cheap read-side filter. ReserveSlot re-checks under the slot
		// lock, so a stale answer here only costs one failed attempt.
		busy, err := s.store.FindOverlappingReservations(ctx, slot.ID, req.StartTime, req.EndTime,
			[]string{db.StatusConfirmed, db.StatusActive})
		if err != nil {
			return nil, err
		}
		if len(busy) > 0 {
			metrics.IncAllocationConflicts()
			continue
		}

		res := &db.Reservation{
			Code:          uuid.NewString(),
			UserID:        req.UserID,
			SlotID:        slot.ID,
			VehiclePlate:  plate,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			DurationHours: BillableHours(req.StartTime, req.EndTime),
			Status:        db.StatusConfirmed,
		}
		err = s.store.ReserveSlot(ctx, res)
		switch {
		case err == nil:
			metrics.IncReservationsCreated()
			s.log.Info().Str("code", res.Code).Str("slot", slot.SlotNumber).
				Time("start", res.StartTime).Time("end", res.EndTime).
				Msg("reservation confirmed")
			s.notifier.ReservationEvent(res, EventConfirmed)
			return res, nil
		case errors.Is(err, apperrors.ErrNoAvailableSlot):
			metrics.IncAllocationConflicts()
			continue
		case errors.Is(err, apperrors.ErrConcurrentConflict):
			metrics.IncAllocationConflicts()
			sawTransientConflict = true
			continue
		default:
			return nil, err
		}
	}

	if sawTransientConflict {
		return nil, apperrors.ErrConcurrentConflict
	}
	return nil, apperrors.ErrNoAvailableSlot
}

func (s *ReservationService) candidateSlots(ctx context.Context, preference string) ([]db.Slot, error) {
	if preference != "" {
		slot, err := s.store.FindSlotByNumber(ctx, preference)
		if err != nil {
			return nil, err
		}
		return []db.Slot{*slot}, nil
	}
	slots, err := s.store.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, apperrors.ErrNoAvailableSlot
	}
	return slots, nil
}

// Cancel marks a reservation cancelled. Only pending and confirmed
// reservations can be cancelled; cancelling an already-cancelled one is an
// idempotent no-op. actorID guards against cancelling someone else's
// booking; staff pass 0 to skip the check.
func (s *ReservationService) Cancel(ctx context.Context, code string, actorID int64) (*db.Reservation, error) {
	res, err := s.store.FindReservationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if actorID != 0 && res.UserID != actorID {
		return nil, apperrors.ErrReservationNotFound
	}

	switch res.Status {
	case db.StatusCancelled:
		return res, nil
	case db.StatusPending, db.StatusConfirmed:
		// proceed
	default:
		return nil, fmt.Errorf("cannot cancel a %s reservation: %w",
			res.Status, apperrors.ErrInvalidStateTransition)
	}

	err = s.store.UpdateReservationStatus(ctx, res.ID, res.Status, db.StatusCancelled, repository.ReservationUpdate{})
	if err != nil {
		if errors.Is(err, apperrors.ErrConcurrentConflict) {
			// Lost a race. If the winner also cancelled, that is still an
			// idempotent success.
			fresh, ferr := s.store.FindReservation(ctx, res.ID)
			if ferr == nil && fresh.Status == db.StatusCancelled {
				return fresh, nil
			}
		}
		return nil, err
	}
	res.Status = db.StatusCancelled

	s.log.Info().Str("code", code).Msg("reservation cancelled")
	s.notifier.ReservationEvent(res, EventCancelled)
	return res, nil
}

func (s *ReservationService) GetByCode(ctx context.Context, code string) (*db.Reservation, error) {
	return s.store.FindReservationByCode(ctx, code)
}

func (s *ReservationService) ListForUser(ctx context.Context, userID int64) ([]db.Reservation, error) {
	return s.store.ListUserReservations(ctx, userID)
}

func (s *ReservationService) ListAll(ctx context.Context) ([]db.Reservation, error) {
	return s.store.ListReservations(ctx)
}
