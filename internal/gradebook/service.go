package gradebook

import (
	"context"
	"strings"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

// RepositoryPort defines data access methods for grade entries.
type RepositoryPort interface {
	ListByStudent(ctx context.Context, studentID int64, term string) ([]Entry, error)
	ListByClass(ctx context.Context, classID int64, term string) ([]Entry, error)
	Upsert(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, id int64) error
	StudentExists(ctx context.Context, studentID int64) (bool, error)
}

// Service handles gradebook business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByStudent returns a student's grades, all terms or one.
func (s *Service) ListByStudent(ctx context.Context, studentID int64, term string) ([]Entry, error) {
	return s.repo.ListByStudent(ctx, studentID, strings.TrimSpace(term))
}

// ListByClass returns a class's grades for one term.
func (s *Service) ListByClass(ctx context.Context, classID int64, term string) ([]Entry, error) {
	return s.repo.ListByClass(ctx, classID, strings.TrimSpace(term))
}

// Record upserts the grade for (student, subject, term). Recording
// twice replaces the earlier score.
func (s *Service) Record(ctx context.Context, e Entry) (Entry, error) {
	e.Subject = strings.TrimSpace(e.Subject)
	e.Term = strings.TrimSpace(e.Term)
	e.Notes = strings.TrimSpace(e.Notes)
	ok, err := s.repo.StudentExists(ctx, e.StudentID)
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, httpx.ErrNotFound
	}
	return s.repo.Upsert(ctx, e)
}

// Remove deletes a grade entry.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
