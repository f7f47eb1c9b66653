// internal/identity/service_test.go
package identity_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leauction/internal/clock"
	"leauction/internal/identity"
	"leauction/internal/store/memory"
)

func newService(t *testing.T) identity.Service {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return identity.NewService(memory.New().Users(), clk)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "alice", "s3cretpw")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cretpw", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "alice@example.com", "s3cretpw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cretpw")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		nickname string
		password string
	}{
		{"bad email", "not-an-email", "alice", "s3cretpw"},
		{"empty nickname", "alice@example.com", "", "s3cretpw"},
		{"long nickname", "alice@example.com", strings.Repeat("a", 21), "s3cretpw"},
		{"short password", "alice@example.com", "alice", "12345"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.nickname, tc.password)
			assert.Error(t, err)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "alice", "s3cretpw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Alice@Example.com", "alice2", "s3cretpw")
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

func TestPublicProfileHidesCredentials(t *testing.T) {
	svc := newService(t)

	user, err := svc.Register(context.Background(), "alice@example.com", "alice", "s3cretpw")
	require.NoError(t, err)

	profile := user.Public()
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "alice", profile.Nickname)
}
