package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
)

func (s *PostgresStore) CreateSlot(ctx context.Context, slot *db.Slot) error {
	query := `
		INSERT INTO parking_slots (slot_number, level, is_occupied, created_at, updated_at)
		VALUES ($1, $2, FALSE, NOW(), NOW())
		RETURNING id, is_occupied, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, slot.SlotNumber, slot.Level).
		Scan(&slot.ID, &slot.IsOccupied, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating slot %s: %w", slot.SlotNumber, mapPQError(err))
	}
	return nil
}

const slotColumns = `id, slot_number, level, is_occupied, occupant_reservation_id, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*db.Slot, error) {
	var slot db.Slot
	var occupant sql.NullInt64
	err := row.Scan(&slot.ID, &slot.SlotNumber, &slot.Level, &slot.IsOccupied,
		&occupant, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if occupant.Valid {
		slot.OccupantReservationID = &occupant.Int64
	}
	return &slot, nil
}

func (s *PostgresStore) FindSlot(ctx context.Context, id int64) (*db.Slot, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("error querying slot %d: %w", id, err)
	}
	return slot, nil
}

func (s *PostgresStore) FindSlotByNumber(ctx context.Context, number string) (*db.Slot, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE slot_number = $1`, number)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrSlotNotFound
		}
		return nil, fmt.Errorf("error querying slot %s: %w", number, err)
	}
	return slot, nil
}

func (s *PostgresStore) ListSlots(ctx context.Context) ([]db.Slot, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM parking_slots ORDER BY slot_number`)
	if err != nil {
		return nil, fmt.Errorf("error listing slots: %w", err)
	}
	defer rows.Close()

	var slots []db.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning slot: %w", err)
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

// UpdateSlotOccupancy flips the occupancy flag with a condition on the
// current flag. Zero rows affected means the expected state did not hold.
func (s *PostgresStore) UpdateSlotOccupancy(ctx context.Context, slotID int64, occupied bool, occupantID *int64, expectOccupied bool) error {
	var occupant sql.NullInt64
	if occupantID != nil {
		occupant = sql.NullInt64{Int64: *occupantID, Valid: true}
	}
	query := `
		UPDATE parking_slots
		SET is_occupied = $2, occupant_reservation_id = $3, updated_at = NOW()
		WHERE id = $1 AND is_occupied = $4`
	result, err := s.DB.ExecContext(ctx, query, slotID, occupied, occupant, expectOccupied)
	if err != nil {
		return fmt.Errorf("error updating slot %d occupancy: %w", slotID, mapPQError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for slot %d: %w", slotID, err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrConcurrentConflict
	}
	return nil
}
