package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
)

func (s *PostgresStore) InsertPayment(ctx context.Context, payment *db.Payment) error {
	query := `
		INSERT INTO payments (id, reservation_id, user_id, amount, duration_hours, status, checkout_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at`
	err := s.DB.QueryRowContext(ctx, query,
		payment.ID, payment.ReservationID, payment.UserID,
		payment.Amount, payment.DurationHours, payment.Status, payment.CheckoutURL,
	).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting payment for reservation %d: %w",
			payment.ReservationID, mapPQError(err))
	}
	return nil
}

func (s *PostgresStore) FindPaymentByReservation(ctx context.Context, reservationID int64) (*db.Payment, error) {
	var payment db.Payment
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, reservation_id, user_id, amount, duration_hours, status, checkout_url, created_at
		FROM payments WHERE reservation_id = $1`, reservationID).
		Scan(&payment.ID, &payment.ReservationID, &payment.UserID, &payment.Amount,
			&payment.DurationHours, &payment.Status, &payment.CheckoutURL, &payment.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no payment for reservation %d: %w",
				reservationID, apperrors.ErrPaymentRecord)
		}
		return nil, fmt.Errorf("error querying payment: %w", err)
	}
	return &payment, nil
}

// AdminStats derives totals from the ledgers on every call. Income counts
// only completed payments; bookings count every reservation ever made.
func (s *PostgresStore) AdminStats(ctx context.Context) (*db.AdminStats, error) {
	var stats db.AdminStats
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = $1),
			(SELECT COUNT(*) FROM reservations)`,
		db.PaymentCompleted,
	).Scan(&stats.TotalIncome, &stats.TotalBookings)
	if err != nil {
		return nil, fmt.Errorf("error computing admin stats: %w", err)
	}
	return &stats, nil
}
