package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
)

const noteColumns = `id, user_id, title, content, summary, keywords, language, created_at`

// EncodeKeywords serializes keywords as a JSON array. Nil encodes as "[]".
func EncodeKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(keywords)
	return string(data)
}

// DecodeKeywords parses a stored keyword column. Empty and NULL values
// decode to an empty, non-nil slice.
func DecodeKeywords(raw sql.NullString) ([]string, error) {
	s := strings.TrimSpace(raw.String)
	if !raw.Valid || s == "" || s == "null" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("store: decode keywords: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// ListNotes returns all notes of userID, newest first.
func (db *DB) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	out := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// GetNote returns a single note owned by userID.
func (db *DB) GetNote(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`), noteID, userID)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return n, err
}

// InsertNote stores n and fills in its ID. CreatedAt must be set by the caller.
func (db *DB) InsertNote(ctx context.Context, n *models.Note) error {
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		INSERT INTO notes (user_id, title, content, summary, keywords, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		n.UserID, n.Title, n.Content, n.Summary, EncodeKeywords(n.Keywords), n.Language, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("store: insert note: %w", err)
	}
	return nil
}

// UpdateNote overwrites the mutable fields of the note matching n.ID and
// n.UserID. Existence and ownership are checked by the same statement.
func (db *DB) UpdateNote(ctx context.Context, n *models.Note) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE notes
		SET title = ?, content = ?, summary = ?, keywords = ?, language = ?
		WHERE id = ? AND user_id = ?`),
		n.Title, n.Content, n.Summary, EncodeKeywords(n.Keywords), n.Language, n.ID, n.UserID,
	)
	if err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	return expectAffected(res)
}

// DeleteNote removes the note matching noteID and userID.
func (db *DB) DeleteNote(ctx context.Context, userID, noteID int64) error {
	res, err := db.conn.ExecContext(ctx,
		db.rebind(`DELETE FROM notes WHERE id = ? AND user_id = ?`), noteID, userID)
	if err != nil {
		return fmt.Errorf("store: delete note: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var (
		n        models.Note
		summary  sql.NullString
		keywords sql.NullString
		language sql.NullString
	)
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &summary, &keywords, &language, &n.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: scan note: %w", err)
	}
	kw, err := DecodeKeywords(keywords)
	if err != nil {
		return nil, err
	}
	n.Summary = summary.String
	n.Keywords = kw
	n.Language = language.String
	if n.Language == "" {
		n.Language = models.DefaultLanguage
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}
