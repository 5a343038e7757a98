package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jask/jaskprofile/internal/database"
	"github.com/jask/jaskprofile/internal/database/repository"
)

// MaintenanceService houses housekeeping run by the API server.
type MaintenanceService struct {
	DB *sql.DB
}

// PurgeSessions removes sessions that expired or were revoked before now.
func (s *MaintenanceService) PurgeSessions(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	n, err := repository.NewSessionRepo(s.DB).DeleteExpired(ctx, database.Now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		slog.Info("purged sessions", "count", n)
	}
	return n, nil
}

// Run purges on every tick until ctx is done.
func (s *MaintenanceService) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Hour
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		if _, err := s.PurgeSessions(ctx); err != nil && ctx.Err() == nil {
			slog.Error("session purge failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
