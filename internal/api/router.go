package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vocanote/internal/auth"
	"github.com/starford/vocanote/internal/noteservice"
	"github.com/starford/vocanote/internal/summarize"
	"github.com/starford/vocanote/internal/users"
)

// TokenIssuer issues and validates session tokens.
type TokenIssuer interface {
	auth.Validator
	Issue(userID int64, username string) (string, error)
}

// Transcriber converts an audio payload to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
	MaxBytes() int64
}

// Summarizer produces a summary and keywords for a text.
type Summarizer interface {
	Summarize(ctx context.Context, req summarize.Request) (*summarize.Result, error)
}

// Deps are the collaborators the API handlers are built from.
type Deps struct {
	Users       *users.Service
	Notes       *noteservice.Service
	Tokens      TokenIssuer
	Transcriber Transcriber
	Summarizer  Summarizer
	Logger      *slog.Logger

	// DevMode exposes internal error messages in 500 responses.
	DevMode bool
	// ProtectTranscription puts POST /notes/transcribe behind auth.
	ProtectTranscription bool
}

// NewRouter creates a chi router with all API routes. It is meant to be
// mounted under /api.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d)
	requireAuth := AuthMiddleware(d.Tokens)

	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(requireAuth).Get("/me", h.Me)
	})

	if d.ProtectTranscription {
		r.With(requireAuth).Post("/notes/transcribe", h.Transcribe)
	} else {
		r.Post("/notes/transcribe", h.Transcribe)
	}

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)

		r.Post("/summary/generate", h.GenerateSummary)
	})

	return r
}
