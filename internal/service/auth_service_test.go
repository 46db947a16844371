package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
)

type mockAuthRepo struct {
	mock.Mock
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAuthRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockAuthRepo) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockAuthRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockAuthRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockAuthRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func TestAuthService_Login_UnknownEmailIsUnauthorized(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, nil)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	_, err := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever1"}, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_WrongPasswordIsUnauthorized(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, nil)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	assert.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Email:        "sam@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	repo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

	_, err = svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "battery staple"}, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "UpdateLastLoginAt", ctx, user.ID)
}

func TestAuthService_Login_DeactivatedAccountIsForbidden(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, nil)
	ctx := context.Background()

	user := &models.User{
		ID:       uuid.New(),
		Email:    "sam@example.com",
		IsActive: false,
	}
	repo.On("GetByEmail", ctx, "sam@example.com").Return(user, nil)

	_, err := svc.Login(ctx, LoginInput{Email: "sam@example.com", Password: "whatever1"}, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_Register_DuplicateEmailConflicts(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, nil)
	ctx := context.Background()

	existing := &models.User{ID: uuid.New(), Email: "taken@example.com"}
	repo.On("GetByEmail", ctx, "taken@example.com").Return(existing, nil)

	_, err := svc.Register(ctx, RegisterInput{
		Email:       "taken@example.com",
		Password:    "longenough",
		DisplayName: "Sam",
	}, nil)

	assert.True(t, apperror.IsConflict(err))
	repo.AssertNotCalled(t, "Create", ctx, mock.Anything)
}

func TestAuthService_Register_ShortPasswordIsValidation(t *testing.T) {
	repo := new(mockAuthRepo)
	svc := NewAuthService(repo, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Email:       "new@example.com",
		Password:    "short",
		DisplayName: "Sam",
	}, nil)

	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "GetByEmail", ctx, mock.Anything)
}
