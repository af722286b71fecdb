package timetable

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

type stubRepo struct {
	slots    []Slot
	slot     Slot
	slotErr  error
	overlap  bool
	created  *Slot
	updated  *Slot
	excluded int64
}

func (s *stubRepo) ListByClass(context.Context, int64) ([]Slot, error) { return s.slots, nil }

func (s *stubRepo) GetSlot(context.Context, int64) (Slot, error) { return s.slot, s.slotErr }

func (s *stubRepo) HasOverlap(_ context.Context, _ int64, _ int, _, _ string, excludeID int64) (bool, error) {
	s.excluded = excludeID
	return s.overlap, nil
}

func (s *stubRepo) CreateSlot(_ context.Context, slot Slot) (Slot, error) {
	s.created = &slot
	return slot, nil
}

func (s *stubRepo) UpdateSlot(_ context.Context, slot Slot) (Slot, error) {
	s.updated = &slot
	return slot, nil
}

func (s *stubRepo) DeleteSlot(context.Context, int64) error { return nil }

func validSlot() Slot {
	return Slot{
		ClassID:   1,
		DayOfWeek: 3,
		StartsAt:  "08:00",
		EndsAt:    "09:30",
		Subject:   "Matematika",
		TeacherID: 5,
	}
}

func TestCreateSlotStoresValidSlot(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	created, err := svc.CreateSlot(context.Background(), validSlot())

	require.NoError(t, err)
	require.NotNil(t, repo.created)
	require.Equal(t, "Matematika", created.Subject)
}

func TestCreateSlotRejectsOverlap(t *testing.T) {
	repo := &stubRepo{overlap: true}
	svc := NewService(repo)

	_, err := svc.CreateSlot(context.Background(), validSlot())

	require.ErrorIs(t, err, ErrOverlap)
	require.Nil(t, repo.created)
}

func TestCreateSlotRejectsInvertedTimes(t *testing.T) {
	svc := NewService(&stubRepo{})
	slot := validSlot()
	slot.StartsAt = "10:00"
	slot.EndsAt = "09:00"

	_, err := svc.CreateSlot(context.Background(), slot)

	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateSlotRejectsBadWeekday(t *testing.T) {
	svc := NewService(&stubRepo{})
	slot := validSlot()
	slot.DayOfWeek = 8

	_, err := svc.CreateSlot(context.Background(), slot)

	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateSlotExcludesItselfFromOverlapCheck(t *testing.T) {
	existing := validSlot()
	existing.ID = 11
	repo := &stubRepo{slot: existing}
	svc := NewService(repo)

	slot := validSlot()
	slot.ID = 11
	slot.StartsAt = "09:30"
	slot.EndsAt = "11:00"

	_, err := svc.UpdateSlot(context.Background(), slot)

	require.NoError(t, err)
	require.Equal(t, int64(11), repo.excluded)
	require.NotNil(t, repo.updated)
}

func TestUpdateSlotKeepsOriginalClass(t *testing.T) {
	existing := validSlot()
	existing.ID = 11
	existing.ClassID = 7
	repo := &stubRepo{slot: existing}
	svc := NewService(repo)

	slot := validSlot()
	slot.ID = 11
	slot.ClassID = 99 // must be ignored

	_, err := svc.UpdateSlot(context.Background(), slot)

	require.NoError(t, err)
	require.Equal(t, int64(7), repo.updated.ClassID)
}

func TestUpdateSlotMissingSlot(t *testing.T) {
	repo := &stubRepo{slotErr: httpx.ErrNotFound}
	svc := NewService(repo)

	slot := validSlot()
	slot.ID = 404

	_, err := svc.UpdateSlot(context.Background(), slot)

	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestOverlapMapsToDuplicate(t *testing.T) {
	require.True(t, errors.Is(ErrOverlap, httpx.ErrDuplicate))
}
