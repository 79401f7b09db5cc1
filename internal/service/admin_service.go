package service

import (
	"context"

	"parkit/internal/db"
	"parkit/internal/entities"
	apperrors "parkit/internal/errors"
	"parkit/internal/repository"
)

// AdminService covers slot provisioning, the derived stats read model and
// feedback.
type AdminService struct {
	store repository.Store
}

func NewAdminService(store repository.Store) *AdminService {
	return &AdminService{store: store}
}

func (s *AdminService) CreateSlot(ctx context.Context, req *entities.CreateSlotRequest) (*db.Slot, error) {
	if req.SlotNumber == "" || req.Level == "" {
		return nil, apperrors.NewHTTPError(400, "slot_number and level are required")
	}
	slot := &db.Slot{SlotNumber: req.SlotNumber, Level: req.Level}
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *AdminService) ListSlots(ctx context.Context) ([]db.Slot, error) {
	return s.store.ListSlots(ctx)
}

// Stats derives totals from the ledgers on demand; there is no shared
// mutable counter to get out of sync.
func (s *AdminService) Stats(ctx context.Context) (*db.AdminStats, error) {
	return s.store.AdminStats(ctx)
}

func (s *AdminService) SubmitFeedback(ctx context.Context, req *entities.FeedbackRequest) (*db.Feedback, error) {
	if len(req.Name) < 2 || req.Email == "" {
		return nil, apperrors.NewHTTPError(400, "name and email are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.NewHTTPError(400, "rating must be between 1 and 5")
	}
	if len(req.Message) < 10 {
		return nil, apperrors.NewHTTPError(400, "message must be at least 10 characters")
	}
	fb := &db.Feedback{Name: req.Name, Email: req.Email, Rating: req.Rating, Message: req.Message}
	if err := s.store.CreateFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func (s *AdminService) ListFeedback(ctx context.Context) ([]db.Feedback, error) {
	return s.store.ListFeedback(ctx)
}
