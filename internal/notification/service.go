// internal/notification/service.go
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the notification inbox.
type Service interface {
	Emitter
	List(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Notification, int, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}
