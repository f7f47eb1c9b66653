// internal/store/memory/users.go
package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"leauction/internal/identity"
)

type userStore struct {
	s *Store
}

func cloneUser(u *identity.User) *identity.User {
	c := *u
	return &c
}

func (m *userStore) CreateUser(ctx context.Context, u *identity.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := m.s.usersByEmail[key]; ok {
		return identity.ErrEmailTaken
	}
	m.s.users[u.ID] = cloneUser(u)
	m.s.usersByEmail[key] = u.ID
	return nil
}

func (m *userStore) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	u, ok := m.s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *userStore) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	id, ok := m.s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return cloneUser(m.s.users[id]), nil
}
