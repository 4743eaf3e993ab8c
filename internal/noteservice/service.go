// Package noteservice implements the owner-scoped note operations on top of
// the note repository.
package noteservice

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
	"github.com/starford/vocanote/internal/store"
)

// Service validates note input and delegates persistence to the repository.
type Service struct {
	repo store.NoteRepository
	now  func() time.Time

	// insertMu serializes inserts so created_at follows insertion order.
	insertMu sync.Mutex
	last     time.Time
}

// NewService creates a new note service.
func NewService(repo store.NoteRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListNotes returns every note owned by userID, newest first.
func (s *Service) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	notes, err := s.repo.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(notes), nil
}

// GetNote returns a note owned by userID.
func (s *Service) GetNote(ctx context.Context, userID, noteID int64) (*models.Note, error) {
	return s.repo.GetNote(ctx, userID, noteID)
}

// CreateNote validates in, applies defaults and stores a new note.
func (s *Service) CreateNote(ctx context.Context, userID int64, in models.NoteInput) (*models.Note, error) {
	n, err := buildNote(in)
	if err != nil {
		return nil, err
	}
	n.UserID = userID

	s.insertMu.Lock()
	defer s.insertMu.Unlock()
	n.CreatedAt = s.stamp()
	if err := s.repo.InsertNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateNote overwrites the mutable fields of a note owned by userID.
// A missing note and a note owned by another user are both apperr.ErrNotFound.
func (s *Service) UpdateNote(ctx context.Context, userID, noteID int64, in models.NoteInput) (*models.Note, error) {
	n, err := buildNote(in)
	if err != nil {
		return nil, err
	}
	n.ID = noteID
	n.UserID = userID
	if err := s.repo.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	return s.repo.GetNote(ctx, userID, noteID)
}

// DeleteNote removes a note owned by userID.
func (s *Service) DeleteNote(ctx context.Context, userID, noteID int64) error {
	return s.repo.DeleteNote(ctx, userID, noteID)
}

// stamp returns a creation time strictly after the previous one, even when
// the wall clock stalls or steps back. Microsecond precision matches the
// coarsest supported column type.
func (s *Service) stamp() time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now
}

func buildNote(in models.NoteInput) (*models.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	lang := strings.TrimSpace(in.Language)
	if lang == "" {
		lang = models.DefaultLanguage
	}
	return &models.Note{
		Title:    title,
		Content:  in.Content,
		Summary:  in.Summary,
		Keywords: nonNilSlice(in.Keywords),
		Language: lang,
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
