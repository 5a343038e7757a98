package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionRepo handles sessions.
type SessionRepo struct {
	db Queryer
}

func NewSessionRepo(db Queryer) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sessions(id, user_id, created_at, expires_at, revoked_at)
	VALUES (?, ?, ?, ?, NULL);
	`, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

func (r *SessionRepo) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	var (
		s       Session
		revoked sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return s, nil
}

// Revoke marks the session revoked. Revoking twice keeps the first timestamp.
func (r *SessionRepo) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`, at, id)
	return err
}

func (r *SessionRepo) RevokeByUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`, at, userID)
	return err
}

// DeleteExpired removes sessions that expired or were revoked before cutoff.
func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
