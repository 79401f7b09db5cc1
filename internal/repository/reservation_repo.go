package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
)

const reservationColumns = `id, code, user_id, slot_id, vehicle_plate, start_time, end_time,
	duration_hours, actual_entry_time, actual_exit_time, status, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (*db.Reservation, error) {
	var res db.Reservation
	var entry, exit sql.NullTime
	err := row.Scan(&res.ID, &res.Code, &res.UserID, &res.SlotID, &res.VehiclePlate,
		&res.StartTime, &res.EndTime, &res.DurationHours, &entry, &exit,
		&res.Status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if entry.Valid {
		t := entry.Time
		res.ActualEntryTime = &t
	}
	if exit.Valid {
		t := exit.Time
		res.ActualExitTime = &t
	}
	return &res, nil
}

// ReserveSlot locks the slot row, re-checks the half-open overlap rule
// against confirmed/active reservations and inserts the new record, all in
// one transaction. The row lock serializes concurrent reservation attempts
// on the same slot, so at most one of two overlapping requests can commit.
func (s *PostgresStore) ReserveSlot(ctx context.Context, res *db.Reservation) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("error beginning reserve transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var slotID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM parking_slots WHERE id = $1 FOR UPDATE`, res.SlotID).Scan(&slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.ErrSlotNotFound
		}
		return fmt.Errorf("error locking slot %d: %w", res.SlotID, mapPQError(err))
	}

	var overlapping int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE slot_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3`,
		res.SlotID, pq.Array([]string{db.StatusConfirmed, db.StatusActive}),
		res.StartTime, res.EndTime,
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("error checking overlap on slot %d: %w", res.SlotID, mapPQError(err))
	}
	if overlapping > 0 {
		return apperrors.ErrNoAvailableSlot
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO reservations
		(code, user_id, slot_id, vehicle_plate, start_time, end_time, duration_hours, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		res.Code, res.UserID, res.SlotID, res.VehiclePlate,
		res.StartTime, res.EndTime, res.DurationHours, res.Status,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting reservation: %w", mapPQError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reservation: %w", mapPQError(err))
	}
	return nil
}

func (s *PostgresStore) FindOverlappingReservations(ctx context.Context, slotID int64, start, end time.Time, statuses []string) ([]db.Reservation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE slot_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
		ORDER BY start_time`,
		slotID, pq.Array(statuses), start, end)
	if err != nil {
		return nil, fmt.Errorf("error querying overlapping reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *PostgresStore) FindReservation(ctx context.Context, id int64) (*db.Reservation, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("error querying reservation %d: %w", id, err)
	}
	return res, nil
}

func (s *PostgresStore) FindReservationByCode(ctx context.Context, code string) (*db.Reservation, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE code = $1`, code)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, fmt.Errorf("error querying reservation %s: %w", code, err)
	}
	return res, nil
}

func (s *PostgresStore) ListUserReservations(ctx context.Context, userID int64) ([]db.Reservation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations WHERE user_id = $1 ORDER BY start_time DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations for user %d: %w", userID, err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *PostgresStore) ListReservations(ctx context.Context) ([]db.Reservation, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *PostgresStore) ListExpiredConfirmed(ctx context.Context, cutoff time.Time) ([]db.Reservation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE status = $1 AND end_time <= $2
		ORDER BY end_time`,
		db.StatusConfirmed, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error listing expired reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

// UpdateReservationStatus is the compare-and-swap primitive for the
// lifecycle state machine. Zero rows affected means the reservation was not
// in the expected status anymore.
func (s *PostgresStore) UpdateReservationStatus(ctx context.Context, id int64, expected, next string, upd ReservationUpdate) error {
	var entry, exit sql.NullTime
	if upd.ActualEntryTime != nil {
		entry = sql.NullTime{Time: *upd.ActualEntryTime, Valid: true}
	}
	if upd.ActualExitTime != nil {
		exit = sql.NullTime{Time: *upd.ActualExitTime, Valid: true}
	}
	query := `
		UPDATE reservations
		SET status = $3,
		    actual_entry_time = COALESCE($4, actual_entry_time),
		    actual_exit_time = COALESCE($5, actual_exit_time),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2`
	result, err := s.DB.ExecContext(ctx, query, id, expected, next, entry, exit)
	if err != nil {
		return fmt.Errorf("error updating reservation %d status: %w", id, mapPQError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for reservation %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrConcurrentConflict
	}
	return nil
}

func collectReservations(rows *sql.Rows) ([]db.Reservation, error) {
	var reservations []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}
