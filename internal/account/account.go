// Package account defines the account backend consumed by the profile screen:
// session lookup, profile row read/update and sign-out.
package account

import (
	"context"
	"time"
)

// Session identifies the signed-in user.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Profile is the per-user row holding the display name.
type Profile struct {
	UserID      string
	DisplayName string
}

// ProfileUpdate lists the fields to write. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
}

// Service is the backend the profile screen talks to.
type Service interface {
	// CurrentSession returns nil, nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	// Profile returns ErrNotFound when the user has no profile row.
	Profile(ctx context.Context, userID string) (Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) error
	SignOut(ctx context.Context) error
}

// Authenticator opens sessions for the entry screen and the CLI.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
}

// Backend is what cmd wiring hands to the UI.
type Backend interface {
	Service
	Authenticator
}

// TokenStore persists the access token between runs.
type TokenStore interface {
	Store(slot, token string) error
	Fetch(slot string) (string, error)
	Delete(slot string) error
}
