// internal/store/postgres/notifications.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leauction/internal/notification"
)

type notificationStore struct {
	s *Store
}

func (p *notificationStore) Insert(ctx context.Context, n *notification.Notification) error {
	_, err := p.s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, content, related_item_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.UserID, n.Type, n.Title, n.Content, nullUUID(n.RelatedItemID), n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (p *notificationStore) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*notification.Notification, int, error) {
	var total int
	if err := p.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := p.s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, content, related_item_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := []*notification.Notification{}
	for rows.Next() {
		var (
			n       notification.Notification
			related uuid.NullUUID
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content,
			&related, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if related.Valid {
			id := related.UUID
			n.RelatedItemID = &id
		}
		out = append(out, &n)
	}
	return out, total, rows.Err()
}

func (p *notificationStore) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := p.s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (p *notificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	var (
		n       notification.Notification
		related uuid.NullUUID
	)
	err := p.s.db.QueryRowContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, type, title, content, related_item_id, is_read, created_at
	`, id, userID).Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content,
		&related, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notification.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	if related.Valid {
		rid := related.UUID
		n.RelatedItemID = &rid
	}
	return &n, nil
}

func (p *notificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := p.s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read
	`, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}
