package service

import (
	"context"
	"fmt"
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

type lifecycleFixture struct {
	store        *repository.MemoryStore
	reservations *ReservationService
	lifecycle    *LifecycleService
	base         time.Time
	clock        *time.Time
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.CreateSlot(context.Background(), &db.Slot{SlotNumber: "A1", Level: "1"}))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := base

	billing := NewBillingService(store, nil, 100, zerolog.Nop())
	reservations := NewReservationService(store, NoopNotifier{}, time.Minute, zerolog.Nop())
	reservations.now = func() time.Time { return clock }
	lifecycle := NewLifecycleService(store, billing, NoopNotifier{}, 15*time.Minute, zerolog.Nop())
	lifecycle.now = func() time.Time { return clock }

	return &lifecycleFixture{
		store:        store,
		reservations: reservations,
		lifecycle:    lifecycle,
		base:         base,
		clock:        &clock,
	}
}

func (f *lifecycleFixture) reserve(t *testing.T, start, end time.Time) *db.Reservation {
	t.Helper()
	res, err := f.reservations.Reserve(context.Background(), &entities.ReservationRequest{
		UserID: 1, VehiclePlate: "KA01AB1234", SlotNumber: "A1",
		StartTime: start, EndTime: end,
	})
	require.NoError(t, err)
	return res
}

func TestCheckInCheckOutBillsRoundedHours(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(2*time.Hour))

	*f.clock = f.base.Add(5 * time.Minute)
	active, err := f.lifecycle.CheckIn(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusActive, active.Status)
	require.NotNil(t, active.ActualEntryTime)

	slot, err := f.store.FindSlot(ctx, res.SlotID)
	require.NoError(t, err)
	assert.True(t, slot.IsOccupied)

	// Parked for 1h30m: billed as 2 hours at the default rate of 100.
	*f.clock = f.base.Add(5*time.Minute + 90*time.Minute)
	result, err := f.lifecycle.CheckOut(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, result.Reservation.Status)
	assert.Empty(t, result.BillingWarning)
	require.NotNil(t, result.Payment)
	assert.Equal(t, 2, result.Payment.DurationHours)
	assert.Equal(t, int64(200), result.Payment.Amount)
	assert.Equal(t, db.PaymentCompleted, result.Payment.Status)

	slot, err = f.store.FindSlot(ctx, res.SlotID)
	require.NoError(t, err)
	assert.False(t, slot.IsOccupied)
}

func TestCheckInWindow(t *testing.T) {
	tests := []struct {
		name    string
		offset  time.Duration
		wantErr error
	}{
		{"too early", -30 * time.Minute, apperrors.ErrCheckInWindowViolation},
		{"within early grace", -10 * time.Minute, nil},
		{"at start", 0, nil},
		{"mid window", time.Hour, nil},
		{"after end", 2*time.Hour + time.Minute, apperrors.ErrCheckInWindowViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLifecycleFixture(t)
			res := f.reserve(t, f.base, f.base.Add(2*time.Hour))

			*f.clock = f.base.Add(tt.offset)
			_, err := f.lifecycle.CheckIn(context.Background(), res.Code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	_, err := f.reservations.Cancel(ctx, res.Code, res.UserID)
	require.NoError(t, err)

	_, err = f.lifecycle.CheckIn(ctx, res.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestCheckInRollsBackWhenSlotOccupied(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	// Force the flag on behind the lifecycle's back.
	other := int64(999)
	require.NoError(t, f.store.UpdateSlotOccupancy(ctx, res.SlotID, true, &other, false))

	_, err := f.lifecycle.CheckIn(ctx, res.Code)
	require.ErrorIs(t, err, apperrors.ErrSlotAlreadyOccupied)

	// The CAS was compensated: the reservation is confirmed again.
	fresh, err := f.store.FindReservationByCode(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, fresh.Status)
}

func TestCheckOutRequiresActive(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	_, err := f.lifecycle.CheckOut(ctx, res.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStateTransition)
}

func TestCheckOutClampsExitToEntry(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	*f.clock = f.base
	_, err := f.lifecycle.CheckIn(ctx, res.Code)
	require.NoError(t, err)

	// A clock that moved backwards still yields the minimum billable hour.
	*f.clock = f.base.Add(-time.Minute)
	result, err := f.lifecycle.CheckOut(ctx, res.Code)
	require.NoError(t, err)
	require.NotNil(t, result.Payment)
	assert.Equal(t, 1, result.Payment.DurationHours)
	assert.Equal(t, int64(100), result.Payment.Amount)
	assert.False(t, result.Reservation.ActualExitTime.Before(*result.Reservation.ActualEntryTime))
}

func TestCheckOutToleratesAlreadyClearFlag(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	*f.clock = f.base
	_, err := f.lifecycle.CheckIn(ctx, res.Code)
	require.NoError(t, err)

	// Clear the flag behind the lifecycle's back; the checkout finds
	// occupancy already reconciled and still completes.
	require.NoError(t, f.store.UpdateSlotOccupancy(ctx, res.SlotID, false, nil, true))

	*f.clock = f.base.Add(30 * time.Minute)
	result, err := f.lifecycle.CheckOut(ctx, res.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCompleted, result.Reservation.Status)
	require.NotNil(t, result.Payment)
}

// brokenSlotStore fails every occupancy clear, as a storage outage would.
type brokenSlotStore struct {
	*repository.MemoryStore
}

func (s *brokenSlotStore) UpdateSlotOccupancy(ctx context.Context, slotID int64, occupied bool, occupantID *int64, expectOccupied bool) error {
	if !occupied {
		return fmt.Errorf("connection reset")
	}
	return s.MemoryStore.UpdateSlotOccupancy(ctx, slotID, occupied, occupantID, expectOccupied)
}

func TestCheckOutSurfacesSlotStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := &brokenSlotStore{MemoryStore: repository.NewMemoryStore()}
	require.NoError(t, store.CreateSlot(ctx, &db.Slot{SlotNumber: "A1", Level: "1"}))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	billing := NewBillingService(store, nil, 100, zerolog.Nop())
	lifecycle := NewLifecycleService(store, billing, NoopNotifier{}, 15*time.Minute, zerolog.Nop())
	lifecycle.now = func() time.Time { return clock }

	res := &db.Reservation{
		Code: "r1", UserID: 1, SlotID: 1, VehiclePlate: "KA01AB1234",
		StartTime: base, EndTime: base.Add(time.Hour),
		Status: db.StatusConfirmed,
	}
	require.NoError(t, store.ReserveSlot(ctx, res))

	_, err := lifecycle.CheckIn(ctx, res.Code)
	require.NoError(t, err)

	clock = base.Add(30 * time.Minute)
	_, err = lifecycle.CheckOut(ctx, res.Code)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrConcurrentConflict)

	// The slot stays flagged occupied; nothing pretended it was freed.
	slot, err := store.FindSlot(ctx, 1)
	require.NoError(t, err)
	assert.True(t, slot.IsOccupied)
}

func TestExpireStale(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	stale := f.reserve(t, f.base, f.base.Add(time.Hour))
	live := f.reserve(t, f.base.Add(2*time.Hour), f.base.Add(3*time.Hour))

	*f.clock = f.base.Add(90 * time.Minute)
	expired, err := f.lifecycle.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	fresh, err := f.store.FindReservationByCode(ctx, stale.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelled, fresh.Status)

	fresh, err = f.store.FindReservationByCode(ctx, live.Code)
	require.NoError(t, err)
	assert.Equal(t, db.StatusConfirmed, fresh.Status)

	// A second sweep finds nothing left to expire.
	expired, err = f.lifecycle.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestExpireStaleSkipsCheckedIn(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	res := f.reserve(t, f.base, f.base.Add(time.Hour))

	*f.clock = f.base
	_, err := f.lifecycle.CheckIn(ctx, res.Code)
	require.NoError(t, err)

	*f.clock = f.base.Add(2 * time.Hour)
	expired, err := f.lifecycle.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}
