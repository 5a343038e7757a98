package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/jaskprofile/internal/database"
	"github.com/jask/jaskprofile/internal/database/repository"
)

// SignUpInput is validated before any row is written.
type SignUpInput struct {
	Email       string `validate:"required,email,max=254"`
	Password    string `validate:"required,min=8,max=72"`
	DisplayName string `validate:"max=64"`
}

// AuthSession is the result of a successful sign-in.
type AuthSession struct {
	AccessToken string
	ExpiresAt   time.Time
	SessionID   string
	User        repository.User
}

// AuthService issues and revokes sessions backed by the sessions table.
type AuthService struct {
	DB       *sql.DB
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	Tokens   *TokenIssuer

	// Now is overridable in tests.
	Now func() time.Time
}

func NewAuthService(db *sql.DB, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		DB:       db,
		Users:    repository.NewUserRepo(db),
		Sessions: repository.NewSessionRepo(db),
		Tokens:   tokens,
		Now:      database.Now,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SignUp creates the user and an initial profile row in one transaction.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (repository.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate.Struct(in); err != nil {
		return repository.User{}, &InputError{Err: err}
	}
	exists, err := s.Users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return repository.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return repository.User{}, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return repository.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := repository.User{ID: uuid.NewString(), Email: in.Email, PasswordHash: string(hash), CreatedAt: now}
	profile := repository.Profile{UserID: user.ID, UpdatedAt: now}
	if in.DisplayName != "" {
		name := in.DisplayName
		profile.DisplayName = &name
	}
	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := repository.NewUserRepo(tx).Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := repository.NewProfileRepo(tx).Upsert(ctx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return repository.User{}, ErrEmailTaken
	}
	if err != nil {
		return repository.User{}, err
	}
	slog.Info("user signed up", "user_id", user.ID)
	return user, nil
}

// SignIn checks the password and opens a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (AuthSession, error) {
	user, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn comparable time so unknown emails are not distinguishable.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return AuthSession{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthSession{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthSession{}, ErrInvalidCredentials
	}

	now := s.now()
	sessionID := uuid.NewString()
	token, exp, err := s.Tokens.Issue(user.ID, user.Email, sessionID, now)
	if err != nil {
		return AuthSession{}, err
	}
	if err := s.Sessions.Create(ctx, repository.Session{ID: sessionID, UserID: user.ID, CreatedAt: now, ExpiresAt: exp}); err != nil {
		return AuthSession{}, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session opened", "user_id", user.ID, "session_id", sessionID)
	return AuthSession{AccessToken: token, ExpiresAt: exp, SessionID: sessionID, User: user}, nil
}

// Verify parses the token and checks its session row is still active.
func (s *AuthService) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.Sessions.Get(ctx, claims.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown session", ErrSessionInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !sess.Active(s.now()) || sess.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: session %s inactive", ErrSessionInvalid, sess.ID)
	}
	return claims, nil
}

// SignOut revokes the session behind token. Already invalid tokens are a no-op.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.Verify(ctx, token)
	if errors.Is(err, ErrSessionInvalid) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Sessions.Revoke(ctx, claims.ID, s.now()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	slog.Info("session revoked", "user_id", claims.Subject, "session_id", claims.ID)
	return nil
}

// SignOutEverywhere revokes every live session of the token's owner.
func (s *AuthService) SignOutEverywhere(ctx context.Context, token string) error {
	claims, err := s.Verify(ctx, token)
	if errors.Is(err, ErrSessionInvalid) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Sessions.RevokeByUser(ctx, claims.Subject, s.now()); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	slog.Info("all sessions revoked", "user_id", claims.Subject)
	return nil
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return database.Now()
}

// InputError wraps validator failures so transports can report them as 4xx.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	var verrs validator.ValidationErrors
	if errors.As(e.Err, &verrs) && len(verrs) > 0 {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return "invalid input: " + strings.Join(parts, ", ")
	}
	return "invalid input: " + e.Err.Error()
}

func (e *InputError) Unwrap() error { return e.Err }

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jaskprofile-dummy-password"), bcrypt.MinCost)
