package store

import (
	"context"

	"github.com/starford/vocanote/internal/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// NoteRepository persists notes. Every operation is scoped to the owning
// user; a note owned by someone else is reported as apperr.ErrNotFound.
type NoteRepository interface {
	ListNotes(ctx context.Context, userID int64) ([]models.Note, error)
	GetNote(ctx context.Context, userID, noteID int64) (*models.Note, error)
	InsertNote(ctx context.Context, n *models.Note) error
	UpdateNote(ctx context.Context, n *models.Note) error
	DeleteNote(ctx context.Context, userID, noteID int64) error
}

// Verify *DB satisfies both repositories at compile time.
var (
	_ UserRepository = (*DB)(nil)
	_ NoteRepository = (*DB)(nil)
)
