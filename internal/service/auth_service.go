package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/repository"
	"github.com/commonapp/common-backend/internal/validation"
)

// AuthRepository describes what AuthService needs from storage.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
}

// AuthService holds registration and authentication rules.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput carries sign-up data.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginInput carries sign-in data.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is the outcome of registration or login.
type AuthResult struct {
	User      *models.User
	Profile   *models.Profile
	TokenPair *TokenPair
}

// NewAuthService creates the service.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register creates a user with a base profile and an initial session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta map[string]string) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, strings.ToLower(in.Email)); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(passHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserID:        user.ID,
		DisplayName:   strings.TrimSpace(in.DisplayName),
		EmailOnEvents: true,
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, profile, meta)
}

// Login checks credentials and issues a new session.
func (s *AuthService) Login(ctx context.Context, in LoginInput, meta map[string]string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, profile, meta)
}

// Refresh rotates a refresh token into a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta map[string]string) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	session, err := s.repo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "session not found")
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, refreshToken)
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "session has expired")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID != session.UserID {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "refresh token is invalid")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeUnauthorized, "session is no longer valid")
		}
		return nil, err
	}

	// One-shot rotation: the presented token dies with the old session.
	if err := s.repo.DeleteSession(ctx, refreshToken); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user, profile, meta)
}

// Logout deletes the session of the presented refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteSession(ctx, refreshToken)
}

// ListSessions returns a user's active sessions.
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.repo.ListSessions(ctx, userID)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, profile *models.Profile, meta map[string]string) (*AuthResult, error) {
	tokenPair, _, refreshExp, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	if meta != nil {
		if ua, ok := meta["user_agent"]; ok {
			session.UserAgent = &ua
		}
		if ip, ok := meta["ip"]; ok {
			session.IPAddress = &ip
		}
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Profile:   profile,
		TokenPair: tokenPair,
	}, nil
}
