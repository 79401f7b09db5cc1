package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkit/internal/db"
)

const userColumns = `id, name, email, phone, password_hash, plate_number, vehicle_model, vehicle_color, created_at, updated_at`

func (s *PostgresStore) CreateUser(ctx context.Context, user *db.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, plate_number, vehicle_model, vehicle_color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Phone, user.PasswordHash,
		user.PlateNumber, user.VehicleModel, user.VehicleColor,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating user %s: %w", user.Email, mapPQError(err))
	}
	return nil
}

func (s *PostgresStore) FindUser(ctx context.Context, id int64) (*db.User, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row, fmt.Sprintf("id %d", id))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*db.User, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row, email)
}

func scanUser(row *sql.Row, ref string) (*db.User, error) {
	var user db.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.PasswordHash,
		&user.PlateNumber, &user.VehicleModel, &user.VehicleColor,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying user %s: %w", ref, err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateStaff(ctx context.Context, staff *db.StaffAccount) error {
	query := `
		INSERT INTO staff_accounts (name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, query,
		staff.Name, staff.Email, staff.PasswordHash, staff.Role,
	).Scan(&staff.ID, &staff.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating staff account %s: %w", staff.Email, mapPQError(err))
	}
	return nil
}

func (s *PostgresStore) FindStaffByEmail(ctx context.Context, email string) (*db.StaffAccount, error) {
	var staff db.StaffAccount
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM staff_accounts WHERE email = $1`, email).
		Scan(&staff.ID, &staff.Name, &staff.Email, &staff.PasswordHash, &staff.Role, &staff.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying staff account %s: %w", email, err)
	}
	return &staff, nil
}
