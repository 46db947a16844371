package dto

import (
	"time"

	"github.com/google/uuid"
)

// dateOnly is the wire format for birthdates.
const dateOnly = "2006-01-02"

// RegisterRequest creates an account with its base profile.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

// LoginRequest signs a user in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest rotates a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest updates the caller's profile. Omitted fields
// stay unchanged.
type UpdateProfileRequest struct {
	DisplayName   *string `json:"display_name"`
	DateOfBirth   *string `json:"date_of_birth"`
	EmailOnEvents *bool   `json:"email_on_events"`
}

// ParseDateOfBirth converts the YYYY-MM-DD birthdate, nil when absent.
func (r *UpdateProfileRequest) ParseDateOfBirth() (*time.Time, error) {
	if r.DateOfBirth == nil || *r.DateOfBirth == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateOnly, *r.DateOfBirth)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// CreatePostRequest submits a post for moderation.
type CreatePostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Location  string   `json:"location" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeText  string   `json:"time_text" binding:"required"`
	Notes     *string  `json:"notes"`
	Responder string   `json:"responder"`
	ExpiresAt *string  `json:"expires_at"`
}

// ParseExpiresAt converts the RFC3339 expiry, nil when absent.
func (r *CreatePostRequest) ParseExpiresAt() (*time.Time, error) {
	return parseRFC3339Ptr(r.ExpiresAt)
}

// UpdatePostRequest replaces the editable fields of a pending post.
type UpdatePostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Location  string   `json:"location" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	TimeText  string   `json:"time_text" binding:"required"`
	Notes     *string  `json:"notes"`
	Responder string   `json:"responder"`
	ExpiresAt *string  `json:"expires_at"`
}

// ParseExpiresAt converts the RFC3339 expiry, nil when absent.
func (r *UpdatePostRequest) ParseExpiresAt() (*time.Time, error) {
	return parseRFC3339Ptr(r.ExpiresAt)
}

// SendMessageRequest appends a message to a thread.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreateReportRequest flags a post or thread for review.
type CreateReportRequest struct {
	TargetType  string  `json:"target_type" binding:"required"`
	TargetID    string  `json:"target_id" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
	Description *string `json:"description"`
}

// ParseTargetID converts the reported target's id.
func (r *CreateReportRequest) ParseTargetID() (uuid.UUID, error) {
	return uuid.Parse(r.TargetID)
}

func parseRFC3339Ptr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
