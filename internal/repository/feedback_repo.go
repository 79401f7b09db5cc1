package repository

import (
	"context"
	"fmt"

	"parkit/internal/db"
)

func (s *PostgresStore) CreateFeedback(ctx context.Context, fb *db.Feedback) error {
	query := `
		INSERT INTO feedback (name, email, rating, message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, query, fb.Name, fb.Email, fb.Rating, fb.Message).
		Scan(&fb.ID, &fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating feedback: %w", mapPQError(err))
	}
	return nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context) ([]db.Feedback, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, email, rating, message, created_at
		FROM feedback ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing feedback: %w", err)
	}
	defer rows.Close()

	var list []db.Feedback
	for rows.Next() {
		var fb db.Feedback
		if err := rows.Scan(&fb.ID, &fb.Name, &fb.Email, &fb.Rating, &fb.Message, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning feedback: %w", err)
		}
		list = append(list, fb)
	}
	return list, rows.Err()
}
