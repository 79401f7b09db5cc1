package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
	"parkit/internal/repository"
)

func TestBillableHours(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		exit time.Time
		want int
	}{
		{"exactly one hour", base.Add(time.Hour), 1},
		{"ninety minutes rounds up", base.Add(90 * time.Minute), 2},
		{"two hours exact", base.Add(2 * time.Hour), 2},
		{"five minutes bills minimum hour", base.Add(5 * time.Minute), 1},
		{"zero duration bills minimum hour", base, 1},
		{"one second over an hour", base.Add(time.Hour + time.Second), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BillableHours(base, tt.exit))
		})
	}
}

func TestComputeAmount(t *testing.T) {
	billing := NewBillingService(repository.NewMemoryStore(), nil, 100, zerolog.Nop())

	assert.Equal(t, int64(100), billing.ComputeAmount(1))
	assert.Equal(t, int64(200), billing.ComputeAmount(2))
	assert.Equal(t, int64(0), billing.ComputeAmount(0))
}

func TestRecordPaymentRequiresCompletedReservation(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	billing := NewBillingService(store, nil, 100, zerolog.Nop())

	require.NoError(t, store.CreateSlot(ctx, &db.Slot{SlotNumber: "A1", Level: "1"}))
	res := &db.Reservation{
		Code: "r1", UserID: 1, SlotID: 1, VehiclePlate: "KA01AB1234",
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		Status: db.StatusConfirmed,
	}
	require.NoError(t, store.ReserveSlot(ctx, res))

	_, err := billing.RecordPayment(ctx, res.ID, res.UserID, 1)
	require.ErrorIs(t, err, apperrors.ErrPaymentRecord)

	// A missing reservation keeps its cause in the chain alongside the
	// payment error, so the warning is diagnosable.
	_, err = billing.RecordPayment(ctx, 9999, 1, 1)
	require.ErrorIs(t, err, apperrors.ErrPaymentRecord)
	require.ErrorIs(t, err, apperrors.ErrReservationNotFound)
}

func TestRecordPaymentPersistsCompletedPayment(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	billing := NewBillingService(store, nil, 100, zerolog.Nop())

	require.NoError(t, store.CreateSlot(ctx, &db.Slot{SlotNumber: "A1", Level: "1"}))
	res := &db.Reservation{
		Code: "r1", UserID: 1, SlotID: 1, VehiclePlate: "KA01AB1234",
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		Status: db.StatusConfirmed,
	}
	require.NoError(t, store.ReserveSlot(ctx, res))
	require.NoError(t, store.UpdateReservationStatus(ctx, res.ID, db.StatusConfirmed, db.StatusActive, repository.ReservationUpdate{}))
	require.NoError(t, store.UpdateReservationStatus(ctx, res.ID, db.StatusActive, db.StatusCompleted, repository.ReservationUpdate{}))

	payment, err := billing.RecordPayment(ctx, res.ID, res.UserID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(300), payment.Amount)
	assert.Equal(t, 3, payment.DurationHours)
	assert.Equal(t, db.PaymentCompleted, payment.Status)
	assert.NotEmpty(t, payment.ID)

	stored, err := store.FindPaymentByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, stored.ID)
}
