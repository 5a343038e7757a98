package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ProfileRepo handles profiles.
type ProfileRepo struct {
	db Queryer
}

func NewProfileRepo(db Queryer) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// Get returns ErrNotFound when the user has no profile row.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, display_name, updated_at FROM profiles WHERE user_id = ?`, userID)
	var (
		p    Profile
		name sql.NullString
	)
	if err := row.Scan(&p.UserID, &name, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if name.Valid {
		p.DisplayName = &name.String
	}
	return p, nil
}

// Upsert writes the row unconditionally; concurrent writers resolve last-write-wins.
func (r *ProfileRepo) Upsert(ctx context.Context, p Profile) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO profiles(user_id, display_name, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
	 display_name=excluded.display_name,
	 updated_at=excluded.updated_at;
	`, p.UserID, p.DisplayName, p.UpdatedAt)
	return err
}
