package local

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/jaskprofile/internal/account"
	"github.com/jask/jaskprofile/internal/database"
	"github.com/jask/jaskprofile/internal/database/repository"
	"github.com/jask/jaskprofile/internal/secrets"
	"github.com/jask/jaskprofile/internal/service"
)

func setupBackend(t *testing.T) (*Backend, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := secrets.NewStore(t.TempDir())
	require.NoError(t, err)

	auth := service.NewAuthService(db, service.NewTokenIssuer("test-secret", time.Hour))
	return New(auth, service.NewProfileService(db), store), ctx
}

func TestNoSessionWhenNothingStored(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)

	require.NoError(t, b.SignOut(ctx), "sign-out without a session is a no-op")
}

func TestSignUpSessionProfileRoundTrip(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	created, err := b.SignUp(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, created.UserID, sess.UserID)
	require.Equal(t, "alice@example.com", sess.Email)

	p, err := b.Profile(ctx, sess.UserID)
	require.NoError(t, err)
	require.Equal(t, "Alice", p.DisplayName)

	name := "  Alicia "
	require.NoError(t, b.UpdateProfile(ctx, sess.UserID, account.ProfileUpdate{DisplayName: &name}))
	p, err = b.Profile(ctx, sess.UserID)
	require.NoError(t, err)
	require.Equal(t, "Alicia", p.DisplayName)

	require.NoError(t, b.UpdateProfile(ctx, sess.UserID, account.ProfileUpdate{}))

	blank := " "
	err = b.UpdateProfile(ctx, sess.UserID, account.ProfileUpdate{DisplayName: &blank})
	se, ok := account.AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "empty_display_name", se.Code)
}

func TestMissingProfileIsNotFound(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	_, err := b.Profile(ctx, "no-such-user")
	require.ErrorIs(t, err, account.ErrNotFound)
}

func TestSignOutClearsSession(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	_, err := b.SignUp(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)
	token, err := b.Tokens.Fetch(Slot)
	require.NoError(t, err)

	require.NoError(t, b.SignOut(ctx))
	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, sess)

	_, err = b.Auth.Verify(ctx, token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestRevokedTokenReadsAsNoSession(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	sess, err := b.SignUp(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)
	require.NoError(t, repository.NewSessionRepo(b.Auth.DB).RevokeByUser(ctx, sess.UserID, database.Now()))

	got, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
	_, err = b.Tokens.Fetch(Slot)
	require.ErrorIs(t, err, secrets.ErrNotFound, "stale token is removed")
}

func TestSignInErrors(t *testing.T) {
	t.Parallel()
	b, ctx := setupBackend(t)

	_, err := b.SignIn(ctx, "nobody@example.com", "password123")
	se, ok := account.AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "invalid_credentials", se.Code)

	_, err = b.SignUp(ctx, "bad", "password123", "")
	se, ok = account.AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "validation_failed", se.Code)

	_, err = b.SignUp(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)
	_, err = b.SignUp(ctx, "a@example.com", "password123", "")
	se, ok = account.AsServiceError(err)
	require.True(t, ok)
	require.Equal(t, "user_already_exists", se.Code)
}
