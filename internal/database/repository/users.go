package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// UserRepo handles users.
type UserRepo struct {
	db Queryer
}

func NewUserRepo(db Queryer) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO users(id, email, password_hash, created_at)
	VALUES (?, ?, ?, ?);
	`, u.ID, normalizeEmail(u.Email), u.PasswordHash, u.CreatedAt)
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, normalizeEmail(email))
	return scanUser(row)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, normalizeEmail(email)).Scan(&n)
	return n > 0, err
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
