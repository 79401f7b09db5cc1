package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parkit/internal/db"
	apperrors "parkit/internal/errors"
)

// MemoryStore is a mutex-guarded Store for tests and single-process runs.
// One lock over the whole store gives the same serialization that the
// Postgres implementation gets from row locks and conditional updates.
type MemoryStore struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]*db.User
	staff        map[int64]*db.StaffAccount
	slots        map[int64]*db.Slot
	reservations map[int64]*db.Reservation
	payments     map[string]*db.Payment
	feedback     []db.Feedback
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*db.User),
		staff:        make(map[int64]*db.StaffAccount),
		slots:        make(map[int64]*db.Slot),
		reservations: make(map[int64]*db.Reservation),
		payments:     make(map[string]*db.Payment),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("users_email_key: %w", apperrors.ErrDuplicateKey)
		}
		if existing.PlateNumber == user.PlateNumber {
			return fmt.Errorf("users_plate_number_key: %w", apperrors.ErrDuplicateKey)
		}
	}
	user.ID = s.nextSeq()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) FindUser(ctx context.Context, id int64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateStaff(ctx context.Context, staff *db.StaffAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.staff {
		if existing.Email == staff.Email {
			return fmt.Errorf("staff_accounts_email_key: %w", apperrors.ErrDuplicateKey)
		}
	}
	staff.ID = s.nextSeq()
	staff.CreatedAt = time.Now().UTC()
	cp := *staff
	s.staff[staff.ID] = &cp
	return nil
}

func (s *MemoryStore) FindStaffByEmail(ctx context.Context, email string) (*db.StaffAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, staff := range s.staff {
		if staff.Email == email {
			cp := *staff
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateSlot(ctx context.Context, slot *db.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.slots {
		if existing.SlotNumber == slot.SlotNumber {
			return fmt.Errorf("parking_slots_slot_number_key: %w", apperrors.ErrDuplicateKey)
		}
	}
	slot.ID = s.nextSeq()
	slot.IsOccupied = false
	slot.OccupantReservationID = nil
	slot.CreatedAt = time.Now().UTC()
	slot.UpdatedAt = slot.CreatedAt
	cp := *slot
	s.slots[slot.ID] = &cp
	return nil
}

func (s *MemoryStore) FindSlot(ctx context.Context, id int64) (*db.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, apperrors.ErrSlotNotFound
	}
	cp := *slot
	return &cp, nil
}

func (s *MemoryStore) FindSlotByNumber(ctx context.Context, number string) (*db.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		if slot.SlotNumber == number {
			cp := *slot
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSlotNotFound
}

func (s *MemoryStore) ListSlots(ctx context.Context) ([]db.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := make([]db.Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		slots = append(slots, *slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotNumber < slots[j].SlotNumber })
	return slots, nil
}

func (s *MemoryStore) UpdateSlotOccupancy(ctx context.Context, slotID int64, occupied bool, occupantID *int64, expectOccupied bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[slotID]
	if !ok {
		return apperrors.ErrSlotNotFound
	}
	if slot.IsOccupied != expectOccupied {
		return apperrors.ErrConcurrentConflict
	}
	slot.IsOccupied = occupied
	if occupantID != nil {
		id := *occupantID
		slot.OccupantReservationID = &id
	} else {
		slot.OccupantReservationID = nil
	}
	slot.UpdatedAt = time.Now().UTC()
	return nil
}

func overlaps(res *db.Reservation, start, end time.Time) bool {
	return res.StartTime.Before(end) && start.Before(res.EndTime)
}

func (s *MemoryStore) ReserveSlot(ctx context.Context, res *db.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[res.SlotID]; !ok {
		return apperrors.ErrSlotNotFound
	}
	for _, existing := range s.reservations {
		if existing.SlotID != res.SlotID {
			continue
		}
		if existing.Status != db.StatusConfirmed && existing.Status != db.StatusActive {
			continue
		}
		if overlaps(existing, res.StartTime, res.EndTime) {
			return apperrors.ErrNoAvailableSlot
		}
	}
	res.ID = s.nextSeq()
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

func (s *MemoryStore) FindOverlappingReservations(ctx context.Context, slotID int64, start, end time.Time, statuses []string) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	var out []db.Reservation
	for _, res := range s.reservations {
		if res.SlotID == slotID && wanted[res.Status] && overlaps(res, start, end) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) FindReservation(ctx context.Context, id int64) (*db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, apperrors.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *MemoryStore) FindReservationByCode(ctx context.Context, code string) (*db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, res := range s.reservations {
		if res.Code == code {
			cp := *res
			return &cp, nil
		}
	}
	return nil, apperrors.ErrReservationNotFound
}

func (s *MemoryStore) ListUserReservations(ctx context.Context, userID int64) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reservation
	for _, res := range s.reservations {
		if res.UserID == userID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) ListReservations(ctx context.Context) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Reservation, 0, len(s.reservations))
	for _, res := range s.reservations {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) ListExpiredConfirmed(ctx context.Context, cutoff time.Time) ([]db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []db.Reservation
	for _, res := range s.reservations {
		if res.Status == db.StatusConfirmed && !res.EndTime.After(cutoff) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out, nil
}

func (s *MemoryStore) UpdateReservationStatus(ctx context.Context, id int64, expected, next string, upd ReservationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return apperrors.ErrReservationNotFound
	}
	if res.Status != expected {
		return apperrors.ErrConcurrentConflict
	}
	res.Status = next
	if upd.ActualEntryTime != nil {
		t := *upd.ActualEntryTime
		res.ActualEntryTime = &t
	}
	if upd.ActualExitTime != nil {
		t := *upd.ActualExitTime
		res.ActualExitTime = &t
	}
	res.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) InsertPayment(ctx context.Context, payment *db.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.ReservationID == payment.ReservationID {
			return fmt.Errorf("payments_reservation_id_key: %w", apperrors.ErrDuplicateKey)
		}
	}
	payment.CreatedAt = time.Now().UTC()
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *MemoryStore) FindPaymentByReservation(ctx context.Context, reservationID int64) (*db.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		if payment.ReservationID == reservationID {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no payment for reservation %d: %w", reservationID, apperrors.ErrPaymentRecord)
}

func (s *MemoryStore) AdminStats(ctx context.Context) (*db.AdminStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &db.AdminStats{TotalBookings: int64(len(s.reservations))}
	for _, payment := range s.payments {
		if payment.Status == db.PaymentCompleted {
			stats.TotalIncome += payment.Amount
		}
	}
	return stats, nil
}

func (s *MemoryStore) CreateFeedback(ctx context.Context, fb *db.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb.ID = s.nextSeq()
	fb.CreatedAt = time.Now().UTC()
	s.feedback = append(s.feedback, *fb)
	return nil
}

func (s *MemoryStore) ListFeedback(ctx context.Context) ([]db.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out, nil
}
