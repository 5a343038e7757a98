// Package local serves account.Service straight from the sqlite account store.
package local

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jask/jaskprofile/internal/account"
	"github.com/jask/jaskprofile/internal/database/repository"
	"github.com/jask/jaskprofile/internal/secrets"
	"github.com/jask/jaskprofile/internal/service"
)

// Slot is the token store slot used by the local backend.
const Slot = "local"

// Backend implements account.Backend over the service layer.
type Backend struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Tokens   account.TokenStore
}

var _ account.Backend = (*Backend)(nil)

func New(auth *service.AuthService, profiles *service.ProfileService, tokens account.TokenStore) *Backend {
	return &Backend{Auth: auth, Profiles: profiles, Tokens: tokens}
}

func (b *Backend) CurrentSession(ctx context.Context) (*account.Session, error) {
	token, err := b.Tokens.Fetch(Slot)
	if errors.Is(err, secrets.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, account.Wrap("session", err)
	}
	claims, err := b.Auth.Verify(ctx, token)
	if errors.Is(err, service.ErrSessionInvalid) {
		slog.Info("dropping stale session token", "reason", err)
		if err := b.Tokens.Delete(Slot); err != nil {
			return nil, account.Wrap("session", err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, account.Wrap("session", err)
	}
	return &account.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

func (b *Backend) Profile(ctx context.Context, userID string) (account.Profile, error) {
	p, err := b.Profiles.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return account.Profile{}, account.ErrNotFound
	}
	if err != nil {
		return account.Profile{}, account.Wrap("profile", err)
	}
	out := account.Profile{UserID: p.UserID}
	if p.DisplayName != nil {
		out.DisplayName = *p.DisplayName
	}
	return out, nil
}

func (b *Backend) UpdateProfile(ctx context.Context, userID string, upd account.ProfileUpdate) error {
	if upd.DisplayName == nil {
		return nil
	}
	if _, err := b.Profiles.UpdateDisplayName(ctx, userID, *upd.DisplayName); err != nil {
		if errors.Is(err, service.ErrEmptyDisplayName) {
			return &account.ServiceError{Op: "update", Code: "empty_display_name", Message: err.Error(), Err: err}
		}
		return account.Wrap("update", err)
	}
	return nil
}

// SignOut revokes the stored session. With no stored token it is a no-op.
func (b *Backend) SignOut(ctx context.Context) error {
	token, err := b.Tokens.Fetch(Slot)
	if errors.Is(err, secrets.ErrNotFound) {
		return nil
	}
	if err != nil {
		return account.Wrap("signout", err)
	}
	if err := b.Auth.SignOut(ctx, token); err != nil {
		return account.Wrap("signout", err)
	}
	if err := b.Tokens.Delete(Slot); err != nil {
		return account.Wrap("signout", err)
	}
	return nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*account.Session, error) {
	as, err := b.Auth.SignIn(ctx, email, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return nil, &account.ServiceError{Op: "signin", Code: "invalid_credentials", Message: "Invalid login credentials", Err: err}
	}
	if err != nil {
		return nil, account.Wrap("signin", err)
	}
	if err := b.Tokens.Store(Slot, as.AccessToken); err != nil {
		return nil, account.Wrap("signin", err)
	}
	return &account.Session{
		UserID:      as.User.ID,
		Email:       as.User.Email,
		AccessToken: as.AccessToken,
		ExpiresAt:   as.ExpiresAt,
	}, nil
}

// SignUp registers the user and signs them in.
func (b *Backend) SignUp(ctx context.Context, email, password, displayName string) (*account.Session, error) {
	_, err := b.Auth.SignUp(ctx, service.SignUpInput{Email: email, Password: password, DisplayName: displayName})
	var inErr *service.InputError
	switch {
	case errors.As(err, &inErr):
		return nil, &account.ServiceError{Op: "signup", Code: "validation_failed", Message: inErr.Error(), Err: err}
	case errors.Is(err, service.ErrEmailTaken):
		return nil, &account.ServiceError{Op: "signup", Code: "user_already_exists", Message: "User already registered", Err: err}
	case err != nil:
		return nil, account.Wrap("signup", err)
	}
	return b.SignIn(ctx, email, password)
}
