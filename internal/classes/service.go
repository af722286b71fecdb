package classes

import (
	"context"
	"strings"
)

// RepositoryPort defines data access methods for classes.
type RepositoryPort interface {
	ListClasses(ctx context.Context) ([]Class, error)
	GetClass(ctx context.Context, id int64) (Class, error)
	CreateClass(ctx context.Context, name, level string) (Class, error)
	UpdateClass(ctx context.Context, id int64, name, level string) (Class, error)
	DeleteClass(ctx context.Context, id int64) error
}

// Service handles class business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListClasses returns all classes.
func (s *Service) ListClasses(ctx context.Context) ([]Class, error) {
	return s.repo.ListClasses(ctx)
}

// GetClass returns one class by ID.
func (s *Service) GetClass(ctx context.Context, id int64) (Class, error) {
	return s.repo.GetClass(ctx, id)
}

// CreateClass stores a new class.
func (s *Service) CreateClass(ctx context.Context, name, level string) (Class, error) {
	return s.repo.CreateClass(ctx, strings.TrimSpace(name), strings.TrimSpace(level))
}

// UpdateClass updates an existing class.
func (s *Service) UpdateClass(ctx context.Context, id int64, name, level string) (Class, error) {
	return s.repo.UpdateClass(ctx, id, strings.TrimSpace(name), strings.TrimSpace(level))
}

// DeleteClass removes a class.
func (s *Service) DeleteClass(ctx context.Context, id int64) error {
	return s.repo.DeleteClass(ctx, id)
}
