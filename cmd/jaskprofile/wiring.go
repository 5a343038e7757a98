package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jask/jaskprofile/internal/account"
	"github.com/jask/jaskprofile/internal/account/local"
	"github.com/jask/jaskprofile/internal/account/remote"
	"github.com/jask/jaskprofile/internal/config"
	"github.com/jask/jaskprofile/internal/database"
	"github.com/jask/jaskprofile/internal/secrets"
	"github.com/jask/jaskprofile/internal/service"
)

type store struct {
	db       *sql.DB
	auth     *service.AuthService
	profiles *service.ProfileService
}

// openStore migrates and opens the sqlite account store.
func openStore(cfg config.Config) (*store, error) {
	if err := cfg.RequireJWTSecret(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if v, dirty, err := database.SchemaVersion(cfg.Database.Path); err == nil {
		slog.Debug("account store ready", "path", cfg.Database.Path, "schema", v, "dirty", dirty)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	tokens := service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	return &store{
		db:       db,
		auth:     service.NewAuthService(db, tokens),
		profiles: service.NewProfileService(db),
	}, nil
}

// openBackend builds the account backend selected by backend.kind.
func openBackend(_ context.Context, cfg config.Config) (account.Backend, func(), error) {
	tokens, err := secrets.NewStore(cfg.Secrets.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open token store: %w", err)
	}
	if cfg.Backend.Kind == config.BackendRemote {
		c, err := remote.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, tokens)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return local.New(st.auth, st.profiles, tokens), func() { _ = st.db.Close() }, nil
}
