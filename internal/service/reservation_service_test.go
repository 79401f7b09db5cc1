package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkit/internal/db"
	"parkit/internal/entities"
	apperrors "parkit/internal/errors"
	"parkit/internal/repository"
)

func newAllocationFixture(t *testing.T, slotNumbers ...string) (*ReservationService, *repository.MemoryStore, time.Time) {
	t.Helper()
	store := repository.NewMemoryStore()
	for _, num := range slotNumbers {
		require.NoError(t, store.CreateSlot(context.Background(), &db.Slot{SlotNumber: num, Level: "1"}))
	}
	svc := NewReservationService(store, NoopNotifier{}, time.Minute, zerolog.Nop())
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc, store, base
}

func TestReserveRejectsInvalidWindow(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"end before start", base.Add(2 * time.Hour), base.Add(time.Hour)},
		{"end equals start", base.Add(time.Hour), base.Add(time.Hour)},
		{"start in the past", base.Add(-time.Hour), base.Add(time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(ctx, &entities.ReservationRequest{
				UserID: 1, VehiclePlate: "KA01AB1234",
				StartTime: tt.start, EndTime: tt.end,
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidTimeWindow)
		})
	}
}

func TestReserveOverlapOnSameSlot(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	first, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234", SlotNumber: "A1",
		StartTime: base, EndTime: base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, first.Status)
	assert.NotEmpty(t, first.Code)
	assert.Equal(t, 2, first.DurationHours)

	// Overlapping window on the only slot has nowhere to go.
	_, err = svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 2, VehiclePlate: "KA02CD5678", SlotNumber: "A1",
		StartTime: base.Add(time.Hour), EndTime: base.Add(3 * time.Hour),
	})
	require.ErrorIs(t, err, apperrors.ErrNoAvailableSlot)

	// Back-to-back is fine: windows are half-open, so end == next start
	// does not collide.
	adjacent, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 2, VehiclePlate: "KA02CD5678", SlotNumber: "A1",
		StartTime: base.Add(2 * time.Hour), EndTime: base.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, first.SlotID, adjacent.SlotID)
}

func TestReserveFallsThroughToFreeSlot(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1", "A2")
	ctx := context.Background()

	first, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	second, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 2, VehiclePlate: "KA02CD5678",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.SlotID, second.SlotID)
}

func TestReserveCancelledWindowIsReusable(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	first, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.Code, first.UserID)
	require.NoError(t, err)

	// The cancelled reservation no longer blocks the window.
	_, err = svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 2, VehiclePlate: "KA02CD5678",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestReserveUsesRegisteredPlateWhenOmitted(t *testing.T) {
	svc, store, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	user := &db.User{Name: "Asha", Email: "asha@example.com", PlateNumber: "ka 01 ab 1234"}
	require.NoError(t, store.CreateUser(ctx, user))

	res, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID:    user.ID,
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "KA01AB1234", res.VehiclePlate)
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Reserve(ctx, &entities.ReservationRequest{
				UserID: int64(i + 1), VehiclePlate: "KA01AB1234", SlotNumber: "A1",
				StartTime: base, EndTime: base.Add(time.Hour),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrNoAvailableSlot)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestCancelIsIdempotent(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	res, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	first, err := svc.Cancel(ctx, res.Code, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, first.Status)

	again, err := svc.Cancel(ctx, res.Code, res.UserID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, again.Status)
}

func TestCancelEnforcesOwnership(t *testing.T) {
	svc, _, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	res, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, res.Code, 42)
	assert.ErrorIs(t, err, apperrors.ErrReservationNotFound)

	// Staff bypass the ownership check with actor 0.
	cancelled, err := svc.Cancel(ctx, res.Code, 0)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, cancelled.Status)
}

func TestCancelCompletedReservationFails(t *testing.T) {
	svc, store, base := newAllocationFixture(t, "A1")
	ctx := context.Background()

	res, err := svc.Reserve(ctx, &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateReservationStatus(ctx, res.ID, db.StatusConfirmed, db.StatusActive, repository.ReservationUpdate{}))
	require.NoError(t, store.UpdateReservationStatus(ctx, res.ID, db.StatusActive, db.StatusCompleted, repository.ReservationUpdate{}))

	_, err = svc.Cancel(ctx, res.Code, res.UserID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestReserveUnknownCode(t *testing.T) {
	svc, _, _ := newAllocationFixture(t, "A1")

	_, err := svc.GetByCode(context.Background(), "no-such-code")
	assert.True(t, errors.Is(err, apperrors.ErrReservationNotFound))
}
