// internal/store/memory/notifications.go
package memory

import (
	"context"

	"github.com/google/uuid"

	"leauction/internal/notification"
)

type notificationStore struct {
	s *Store
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	c := *n
	if n.RelatedItemID != nil {
		id := *n.RelatedItemID
		c.RelatedItemID = &id
	}
	return &c
}

func (m *notificationStore) Insert(ctx context.Context, n *notification.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.notifications[n.UserID] = append(m.s.notifications[n.UserID], cloneNotification(n))
	return nil
}

func (m *notificationStore) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*notification.Notification, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	all := m.s.notifications[userID]
	total := len(all)

	// Newest first.
	out := []*notification.Notification{}
	start := (page - 1) * perPage
	for i := total - 1 - start; i >= 0 && len(out) < perPage; i-- {
		out = append(out, cloneNotification(all[i]))
	}
	return out, total, nil
}

func (m *notificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	count := 0
	for _, n := range m.s.notifications[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *notificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, n := range m.s.notifications[userID] {
		if n.ID == id {
			n.IsRead = true
			return cloneNotification(n), nil
		}
	}
	return nil, notification.ErrNotFound
}

func (m *notificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, n := range m.s.notifications[userID] {
		n.IsRead = true
	}
	return nil
}
