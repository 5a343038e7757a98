package service

import (
	"context"
	"strings"
	"time"

	"github.com/jask/jaskprofile/internal/database"
	"github.com/jask/jaskprofile/internal/database/repository"
)

// ProfileService reads and writes display names.
type ProfileService struct {
	Profiles *repository.ProfileRepo

	Now func() time.Time
}

func NewProfileService(db repository.Queryer) *ProfileService {
	return &ProfileService{Profiles: repository.NewProfileRepo(db), Now: database.Now}
}

// Get returns repository.ErrNotFound when the user has no profile row.
func (s *ProfileService) Get(ctx context.Context, userID string) (repository.Profile, error) {
	return s.Profiles.Get(ctx, userID)
}

// UpdateDisplayName trims name and writes it, creating the row if missing.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyDisplayName
	}
	now := database.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if err := s.Profiles.Upsert(ctx, repository.Profile{UserID: userID, DisplayName: &name, UpdatedAt: now}); err != nil {
		return "", err
	}
	return name, nil
}
