package timetable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

// ErrOverlap marks a slot that collides with an existing one for the
// same class and weekday. Mapped to 409 by the handler.
var ErrOverlap = fmt.Errorf("timetable slot overlaps an existing slot: %w", httpx.ErrDuplicate)

const clockLayout = "15:04"

// RepositoryPort defines data access methods for timetable slots.
type RepositoryPort interface {
	ListByClass(ctx context.Context, classID int64) ([]Slot, error)
	GetSlot(ctx context.Context, id int64) (Slot, error)
	HasOverlap(ctx context.Context, classID int64, dayOfWeek int, startsAt, endsAt string, excludeID int64) (bool, error)
	CreateSlot(ctx context.Context, s Slot) (Slot, error)
	UpdateSlot(ctx context.Context, s Slot) (Slot, error)
	DeleteSlot(ctx context.Context, id int64) error
}

// Service handles timetable business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByClass returns a class's weekly timetable.
func (s *Service) ListByClass(ctx context.Context, classID int64) ([]Slot, error) {
	return s.repo.ListByClass(ctx, classID)
}

// GetSlot returns one slot by ID.
func (s *Service) GetSlot(ctx context.Context, id int64) (Slot, error) {
	return s.repo.GetSlot(ctx, id)
}

// CreateSlot stores a new slot after checking the class has no
// conflicting slot on that weekday.
func (s *Service) CreateSlot(ctx context.Context, slot Slot) (Slot, error) {
	if err := s.normalize(&slot); err != nil {
		return Slot{}, err
	}
	overlap, err := s.repo.HasOverlap(ctx, slot.ClassID, slot.DayOfWeek, slot.StartsAt, slot.EndsAt, 0)
	if err != nil {
		return Slot{}, err
	}
	if overlap {
		return Slot{}, ErrOverlap
	}
	return s.repo.CreateSlot(ctx, slot)
}

// UpdateSlot reschedules a slot, keeping the overlap guarantee. The
// slot being updated is excluded from its own conflict check.
func (s *Service) UpdateSlot(ctx context.Context, slot Slot) (Slot, error) {
	current, err := s.repo.GetSlot(ctx, slot.ID)
	if err != nil {
		return Slot{}, err
	}
	slot.ClassID = current.ClassID
	if err := s.normalize(&slot); err != nil {
		return Slot{}, err
	}
	overlap, err := s.repo.HasOverlap(ctx, slot.ClassID, slot.DayOfWeek, slot.StartsAt, slot.EndsAt, slot.ID)
	if err != nil {
		return Slot{}, err
	}
	if overlap {
		return Slot{}, ErrOverlap
	}
	return s.repo.UpdateSlot(ctx, slot)
}

// DeleteSlot removes a slot.
func (s *Service) DeleteSlot(ctx context.Context, id int64) error {
	return s.repo.DeleteSlot(ctx, id)
}

func (s *Service) normalize(slot *Slot) error {
	slot.Subject = strings.TrimSpace(slot.Subject)
	if slot.DayOfWeek < minWeekday || slot.DayOfWeek > maxWeekday {
		return fmt.Errorf("day_of_week out of range: %w", httpx.ErrValidation)
	}
	start, err := time.Parse(clockLayout, slot.StartsAt)
	if err != nil {
		return fmt.Errorf("starts_at: %w", httpx.ErrValidation)
	}
	end, err := time.Parse(clockLayout, slot.EndsAt)
	if err != nil {
		return fmt.Errorf("ends_at: %w", httpx.ErrValidation)
	}
	if !end.After(start) {
		return fmt.Errorf("ends_at must be after starts_at: %w", httpx.ErrValidation)
	}
	return nil
}
