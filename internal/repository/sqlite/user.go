package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shareplate/shareplate/internal/apperror"
	"github.com/shareplate/shareplate/internal/model"
	"github.com/shareplate/shareplate/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
var _ repository.UserRepository = (*DB)(nil)

// UpsertUser inserts a user or refreshes their profile fields. The key is the
// provider-issued ID, so a returning user keeps their row and only the
// mutable profile data moves. Runs on every login.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	var createdAt time.Time
	err := db.conn.QueryRowContext(ctx,
		`SELECT created_at FROM users WHERE id = ?`, user.ID,
	).Scan(&createdAt)

	switch {
	case err == sql.ErrNoRows:
		user.CreatedAt = now
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.ProfileImageURL,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
		}

	case err != nil:
		return fmt.Errorf("sqlite: looking up user %s: %w", user.ID, err)

	default:
		user.CreatedAt = createdAt
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users
			 SET email = ?, first_name = ?, last_name = ?, profile_image_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.FirstName,
			user.LastName,
			user.ProfileImageURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
	}

	return nil
}

// GetUser retrieves a user by the provider-issued ID.
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, profile_image_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.ProfileImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
