package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "parkit/internal/errors"
)

// PostgresStore implements Store on top of a *sql.DB. Method definitions
// are split per concern across the *_repo.go files in this package.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

var _ Store = (*PostgresStore)(nil)

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// mapPQError folds driver error codes into the domain taxonomy.
func mapPQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, apperrors.ErrDuplicateKey)
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%s: %w", pqErr.Message, apperrors.ErrConcurrentConflict)
		}
	}
	return err
}
