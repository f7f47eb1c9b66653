// internal/identity/store.go
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Store persists user accounts.
type Store interface {
	// CreateUser returns ErrEmailTaken when the email is already in use.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
