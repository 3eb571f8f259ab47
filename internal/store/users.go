package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/matheus3301/lnf/internal/profile"
)

var _ profile.Store = (*DB)(nil)

const userColumns = `id, COALESCE(email, ''), first_name, last_name, pronouns, phone, image_path,
	karma, password_hash, created_at, updated_at`

// CreateUser inserts a user. A duplicate email yields profile.ErrEmailTaken.
func (db *DB) CreateUser(ctx context.Context, u *profile.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, pronouns, phone, image_path,
			karma, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, nullIfEmpty(u.Email), u.FirstName, u.LastName, u.Pronouns, u.Phone, u.ImagePath,
		u.Karma, u.PasswordHash, u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli())
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return profile.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

// UserByID returns a user or profile.ErrNotFound.
func (db *DB) UserByID(ctx context.Context, id string) (*profile.User, error) {
	return db.userWhere(ctx, "id = ?", id)
}

// UserByEmail returns a user by normalized email or profile.ErrNotFound.
func (db *DB) UserByEmail(ctx context.Context, email string) (*profile.User, error) {
	return db.userWhere(ctx, "email = ?", email)
}

// UpdateUser writes the editable fields of u.
func (db *DB) UpdateUser(ctx context.Context, u *profile.User) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users SET first_name = ?, last_name = ?, pronouns = ?, phone = ?, image_path = ?, updated_at = ?
		WHERE id = ?`,
		u.FirstName, u.LastName, u.Pronouns, u.Phone, u.ImagePath, u.UpdatedAt.UnixMilli(), u.ID)
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// IncrementKarma adds amount to a user's karma and returns the new score.
func (db *DB) IncrementKarma(ctx context.Context, id string, amount int) (int, error) {
	var score int
	err := db.QueryRowContext(ctx, `
		UPDATE users SET karma = karma + ?, updated_at = ?
		WHERE id = ?
		RETURNING karma`, amount, time.Now().UnixMilli(), id).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, profile.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment karma of %s: %w", id, err)
	}
	return score, nil
}

func (db *DB) userWhere(ctx context.Context, cond string, arg any) (*profile.User, error) {
	var (
		u                profile.User
		created, updated int64
	)
	err := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Pronouns, &u.Phone, &u.ImagePath,
		&u.Karma, &u.PasswordHash, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created)
	u.UpdatedAt = time.UnixMilli(updated)
	return &u, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
