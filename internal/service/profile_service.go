package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/commonapp/common-backend/internal/models"
	"github.com/commonapp/common-backend/internal/pkg/apperror"
	"github.com/commonapp/common-backend/internal/profile"
	"github.com/commonapp/common-backend/internal/validation"
)

// ProfileRepository is the storage surface ProfileService needs.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
}

// ProfileUpdate carries the mutable profile fields. Nil pointers mean
// "leave unchanged".
type ProfileUpdate struct {
	DisplayName   *string
	DateOfBirth   *time.Time
	EmailOnEvents *bool
	AvatarPath    *string
}

// PublicProfile is the profile as other users see it: the birthdate
// stays server-side, only the derived facts go out.
type PublicProfile struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Headline    string    `json:"headline"`
	Initials    string    `json:"initials"`
	Age         *int      `json:"age,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// ProfileService reads and writes profiles and derives the public
// presentation facts.
type ProfileService struct {
	repo         ProfileRepository
	mediaBaseURL string
}

func NewProfileService(repo ProfileRepository, mediaBaseURL string) *ProfileService {
	return &ProfileService{repo: repo, mediaBaseURL: mediaBaseURL}
}

// GetOwnProfile returns the caller's full profile row.
func (s *ProfileService) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	prof, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	return prof, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the
// stored result.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.Profile, error) {
	current, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapStorageErr(err)
	}

	if upd.DisplayName != nil {
		if err := validation.ValidateDisplayName(*upd.DisplayName); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		current.DisplayName = *upd.DisplayName
	}
	if upd.DateOfBirth != nil {
		if upd.DateOfBirth.After(time.Now()) {
			return nil, apperror.New(apperror.ErrCodeValidation, "date of birth cannot be in the future")
		}
		current.DateOfBirth = upd.DateOfBirth
	}
	if upd.EmailOnEvents != nil {
		current.EmailOnEvents = *upd.EmailOnEvents
	}
	if upd.AvatarPath != nil {
		current.AvatarPath = upd.AvatarPath
	}

	if err := s.repo.UpsertProfile(ctx, current); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "profile not saved")
	}
	return current, nil
}

// GetPublicProfile returns the derived view of a user's profile.
func (s *ProfileService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*PublicProfile, error) {
	return s.publicView(ctx, userID, time.Now())
}

func (s *ProfileService) publicView(ctx context.Context, userID uuid.UUID, now time.Time) (*PublicProfile, error) {
	prof, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, mapStorageErr(err)
	}

	return &PublicProfile{
		UserID:      prof.UserID,
		DisplayName: prof.DisplayName,
		Headline:    profile.DisplayName(prof.DisplayName, prof.DateOfBirth, now),
		Initials:    profile.Initials(prof.DisplayName),
		Age:         profile.AgeFromBirthdate(prof.DateOfBirth, now),
		AvatarURL:   profile.ResolveAvatarURL(prof.AvatarPath, s.mediaBaseURL),
	}, nil
}
