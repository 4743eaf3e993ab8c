package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
)

// CreateUser inserts a user and returns it with its assigned id.
// A duplicate username yields apperr.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	u := &models.User{Username: username, PasswordHash: passwordHash}
	err := db.conn.QueryRowContext(ctx,
		db.rebind(`INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id`),
		username, passwordHash,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.New(apperr.ErrConflict, "username already exists")
		}
		return nil, fmt.Errorf("store: insert user: %w", err)
	}
	return u, nil
}

// UserByUsername looks a user up by exact username.
func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT id, username, password_hash FROM users WHERE username = ?`), username))
}

// UserByID looks a user up by id.
func (db *DB) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT id, username, password_hash FROM users WHERE id = ?`), id))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return u, nil
}
