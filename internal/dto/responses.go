package dto

import (
	"github.com/commonapp/common-backend/internal/models"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User         *models.User    `json:"user"`
	Profile      *models.Profile `json:"profile"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

// Pagination carries list paging metadata.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// FeedResponse is the ranked public feed.
type FeedResponse struct {
	Posts      []models.RankedPost `json:"posts"`
	Pagination Pagination          `json:"pagination"`
}

// InterestResponse is the outcome of expressing interest in a post.
// Created distinguishes a fresh thread from a revisited one.
type InterestResponse struct {
	Thread  *models.Thread `json:"thread"`
	Created bool           `json:"created"`
}

// ThreadListResponse is a user's threads, open before closed.
type ThreadListResponse struct {
	Threads []models.ThreadView `json:"threads"`
}

// MessageListResponse is a thread's messages in creation order.
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
	Closed   bool             `json:"closed"`
}

// ModerationCountsResponse is the admin dashboard badge payload.
type ModerationCountsResponse struct {
	PendingPosts   int `json:"pending_posts"`
	PendingReports int `json:"pending_reports"`
}

// UnreadCountResponse is the notification badge payload.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// GeocodeResult is one forward-geocoding hit.
type GeocodeResult struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}
