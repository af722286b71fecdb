package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sekolahku/sekolahku/internal/platform/httpx"
)

type stubRepo struct {
	createdEmail string
	createdName  string
	createdHash  string
	createErr    error
	listLimit    int
	listOffset   int
}

func (s *stubRepo) ListUsers(_ context.Context, limit, offset int) ([]User, int, error) {
	s.listLimit, s.listOffset = limit, offset
	return nil, 45, nil
}

func (s *stubRepo) GetUser(context.Context, int64) (User, error) { return User{}, nil }

func (s *stubRepo) CreateUser(_ context.Context, email, name, passwordHash string) (User, error) {
	if s.createErr != nil {
		return User{}, s.createErr
	}
	s.createdEmail = email
	s.createdName = name
	s.createdHash = passwordHash
	return User{ID: 1, Email: email, Name: name, IsActive: true}, nil
}

func (s *stubRepo) UpdateUser(context.Context, int64, string, bool) (User, error) {
	return User{}, nil
}

func (s *stubRepo) SoftDeleteUser(context.Context, int64) error { return nil }

func TestCreateUserHashesPassword(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, err := svc.CreateUser(context.Background(), "Admin@Sekolahku.Local ", " Administrator ", "rahasia123")
	require.NoError(t, err)

	require.Equal(t, "admin@sekolahku.local", repo.createdEmail)
	require.Equal(t, "Administrator", repo.createdName)
	require.NotEqual(t, "rahasia123", repo.createdHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.createdHash), []byte("rahasia123")))
}

func TestListUsersPaginates(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, pagination, err := svc.ListUsers(context.Background(), 3, 10)
	require.NoError(t, err)

	require.Equal(t, 10, repo.listLimit)
	require.Equal(t, 20, repo.listOffset)
	require.Equal(t, 45, pagination.Total)
	require.Equal(t, 5, pagination.TotalPages)
}

func TestListUsersDefaultsPageBounds(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	_, pagination, err := svc.ListUsers(context.Background(), 0, -1)
	require.NoError(t, err)

	require.Equal(t, 20, repo.listLimit)
	require.Equal(t, 0, repo.listOffset)
	require.Equal(t, 1, pagination.Page)
}

func TestCreateUserSurfacesDuplicateEmail(t *testing.T) {
	repo := &stubRepo{createErr: httpx.ErrDuplicate}
	svc := NewService(repo)

	_, err := svc.CreateUser(context.Background(), "admin@sekolahku.local", "Administrator", "rahasia123")
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}
