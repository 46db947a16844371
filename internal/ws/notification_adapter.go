package ws

import (
	"context"

	"github.com/google/uuid"
)

// NotificationServiceAdapter bridges NotificationService into the
// hub's NotificationSaver interface.
type NotificationServiceAdapter struct {
	service interface {
		CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
	}
}

func NewNotificationServiceAdapter(service interface {
	CreateNotificationForWS(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification implements NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error {
	return a.service.CreateNotificationForWS(ctx, userID, event, data)
}
