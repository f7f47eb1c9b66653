// internal/store/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"leauction/internal/identity"
)

type userStore struct {
	s *Store
}

func (p *userStore) CreateUser(ctx context.Context, u *identity.User) error {
	_, err := p.s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, nickname, password_hash, created_at)
		VALUES ($1, lower($2), $3, $4, $5)
	`, u.ID, u.Email, u.Nickname, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return identity.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *userStore) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return p.getUser(ctx, `SELECT id, email, nickname, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (p *userStore) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	return p.getUser(ctx, `SELECT id, email, nickname, password_hash, created_at FROM users WHERE email = lower($1)`, email)
}

func (p *userStore) getUser(ctx context.Context, query string, arg any) (*identity.User, error) {
	var u identity.User
	err := p.s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
