package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/repository/memory"
	"alumni-registry-backend/internal/security"
	"alumni-registry-backend/internal/service"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	auth := service.NewAuthService(store.AccountRepository, security.NewTokenManager(testSecret, 0, 0))

	id, err := auth.CreateAccount(ctx, "Jane@Example.com", "correct-horse")
	require.NoError(t, err)

	t.Run("Duplicate email", func(t *testing.T) {
		_, err := auth.CreateAccount(ctx, "jane@example.com", "another-pass")
		assert.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("Authenticate", func(t *testing.T) {
		sess, err := auth.Authenticate(ctx, "jane@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, id, sess.Auth.AccountID)
		assert.NotEmpty(t, sess.RefreshToken)

		restored, err := auth.SessionFromToken(ctx, sess.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, id, restored.AccountID)
		assert.Equal(t, domain.AccountRoleAlumni, restored.Role)
		assert.False(t, restored.IsAdmin())

		_, err = auth.SessionFromToken(ctx, sess.RefreshToken)
		assert.ErrorIs(t, err, service.ErrUnauthenticated, "refresh tokens do not open a session")
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "jane@example.com", "wrong-horse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "nobody@example.com", "correct-horse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Current user from context", func(t *testing.T) {
		_, ok := auth.GetCurrentUser(ctx)
		assert.False(t, ok)

		s := &domain.AuthSession{AccountID: id, AlumniID: "SPGOY73001HI"}
		got, ok := auth.GetCurrentUser(service.WithSession(ctx, s))
		require.True(t, ok)
		key, linked := got.CurrentIdentity()
		assert.True(t, linked)
		assert.Equal(t, "SPGOY73001HI", key)
	})

	t.Run("Delete refuses linked account", func(t *testing.T) {
		alumniID := "SPGOY73009HI"
		linked := &domain.Account{Email: "linked@example.com", AlumniID: &alumniID}
		require.NoError(t, store.AccountRepository.Create(ctx, linked))
		assert.Error(t, auth.DeleteAccount(ctx, linked.ID))
		assert.NoError(t, auth.DeleteAccount(ctx, id))
	})
}
