package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account row. Credentials and flags live here, everything
// shown to other users lives on Profile.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsAdmin      bool       `db:"is_admin" json:"is_admin"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile is the public face of a user. DateOfBirth never leaves the
// API; only the derived age does.
type Profile struct {
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	DisplayName   string     `db:"display_name" json:"display_name"`
	AvatarPath    *string    `db:"avatar_path" json:"avatar_path,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"-"`
	EmailOnEvents bool       `db:"email_on_events" json:"email_on_events"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Session stores an issued refresh token.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
