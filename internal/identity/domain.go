// internal/identity/domain.go
package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// User is an account known to the marketplace. Sellers, bidders and
// transaction parties are all plain users; roles are implied by the
// records that reference them.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicProfile is the projection of a user shown to other users.
type PublicProfile struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Nickname: u.Nickname}
}
