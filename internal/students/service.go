package students

import "context"

// RepositoryPort defines data access methods for students.
type RepositoryPort interface {
	ListByClass(ctx context.Context, classID int64) ([]Student, error)
	GetStudent(ctx context.Context, id int64) (Student, error)
	Enroll(ctx context.Context, userID, classID int64) (int64, error)
	Transfer(ctx context.Context, id, classID int64) error
	Withdraw(ctx context.Context, id int64) error
}

// Service handles student business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListByClass returns the students of one class.
func (s *Service) ListByClass(ctx context.Context, classID int64) ([]Student, error) {
	return s.repo.ListByClass(ctx, classID)
}

// GetStudent returns one student by ID.
func (s *Service) GetStudent(ctx context.Context, id int64) (Student, error) {
	return s.repo.GetStudent(ctx, id)
}

// Enroll creates a student record and returns the full row.
func (s *Service) Enroll(ctx context.Context, userID, classID int64) (Student, error) {
	id, err := s.repo.Enroll(ctx, userID, classID)
	if err != nil {
		return Student{}, err
	}
	return s.repo.GetStudent(ctx, id)
}

// Transfer moves a student to another class.
func (s *Service) Transfer(ctx context.Context, id, classID int64) (Student, error) {
	if err := s.repo.Transfer(ctx, id, classID); err != nil {
		return Student{}, err
	}
	return s.repo.GetStudent(ctx, id)
}

// Withdraw removes a student record.
func (s *Service) Withdraw(ctx context.Context, id int64) error {
	return s.repo.Withdraw(ctx, id)
}
