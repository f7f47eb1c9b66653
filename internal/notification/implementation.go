// internal/notification/implementation.go
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leauction/internal/clock"
)

// service implements the Service interface.
type service struct {
	store   Store
	clock   clock.Clock
	logger  *zap.Logger
	webhook *WebhookSender
}

// NewService creates a notification service. webhook may be nil, in which
// case notifications are only written to the inbox store.
func NewService(store Store, clk clock.Clock, logger *zap.Logger, webhook *WebhookSender) Service {
	return &service{
		store:   store,
		clock:   clk,
		logger:  logger,
		webhook: webhook,
	}
}

// Emit records a notification and mirrors it to the webhook channel.
// Failures are logged and swallowed: emission must never fail the state
// transition that triggered it.
func (s *service) Emit(userID uuid.UUID, ntype, title, content string, relatedItemID *uuid.UUID) {
	n := &Notification{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          ntype,
		Title:         title,
		Content:       content,
		RelatedItemID: relatedItemID,
		CreatedAt:     s.clock.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.Insert(ctx, n); err != nil {
		s.logger.Warn("failed to store notification",
			zap.String("type", ntype),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	if s.webhook != nil {
		go s.webhook.Send(n)
	}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 20
	}
	return s.store.ListByUser(ctx, userID, page, perPage)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Notification, error) {
	return s.store.MarkRead(ctx, id, userID)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.MarkAllRead(ctx, userID)
}
