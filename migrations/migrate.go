package migrations

import (
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		plate_number TEXT NOT NULL UNIQUE,
		vehicle_model TEXT NOT NULL DEFAULT '',
		vehicle_color TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS staff_accounts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('admin', 'security')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS parking_slots (
		id BIGSERIAL PRIMARY KEY,
		slot_number TEXT NOT NULL UNIQUE,
		level TEXT NOT NULL,
		is_occupied BOOLEAN NOT NULL DEFAULT FALSE,
		occupant_reservation_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		user_id BIGINT NOT NULL REFERENCES users(id),
		slot_id BIGINT NOT NULL REFERENCES parking_slots(id),
		vehicle_plate TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		duration_hours INT NOT NULL,
		actual_entry_time TIMESTAMPTZ,
		actual_exit_time TIMESTAMPTZ,
		status TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'active', 'completed', 'cancelled')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_time > start_time)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_slot_window
		ON reservations (slot_id, start_time, end_time)
		WHERE status IN ('confirmed', 'active')`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations (user_id)`,

	`CREATE INDEX IF NOT EXISTS idx_reservations_expiry
		ON reservations (end_time) WHERE status = 'confirmed'`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		reservation_id BIGINT NOT NULL UNIQUE REFERENCES reservations(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		amount BIGINT NOT NULL,
		duration_hours INT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('completed', 'failed')),
		checkout_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS feedback (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Up applies the schema. Every statement is idempotent, so running it on
// every boot is safe.
func Up(db *sql.DB) error {
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
