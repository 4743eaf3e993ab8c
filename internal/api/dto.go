package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vocanote/internal/auth"
	"github.com/starford/vocanote/internal/models"
)

// notBlank rejects strings that are empty after trimming.
var notBlank = validation.By(func(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Username string `json:"username" example:"alice" validate:"required"`
	Password string `json:"password" example:"pw123" validate:"required"`
}

// Validate checks that both fields are present.
func (r *CredentialsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, notBlank),
		validation.Field(&r.Password, notBlank),
	)
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string        `json:"token" validate:"required"`
	User  auth.Identity `json:"user" validate:"required"`
}

// NoteRequest is the body of note create and update.
type NoteRequest struct {
	Title    string   `json:"title" example:"Groceries" validate:"required"`
	Content  string   `json:"content" example:"milk, eggs"`
	Summary  string   `json:"summary,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Language string   `json:"language,omitempty" example:"English"`
}

// Validate checks that the title is present.
func (r *NoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, notBlank),
	)
}

func (r *NoteRequest) input() models.NoteInput {
	return models.NoteInput{
		Title:    r.Title,
		Content:  r.Content,
		Summary:  r.Summary,
		Keywords: r.Keywords,
		Language: r.Language,
	}
}

// SummaryRequest is the body of POST /summary/generate.
type SummaryRequest struct {
	Text         string `json:"text" validate:"required"`
	TargetLength string `json:"targetLength" example:"brief" enums:"brief,medium,detailed"`
	Language     string `json:"language" example:"English"`
}

// Validate checks that there is text to summarize.
func (r *SummaryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, notBlank),
	)
}

// TranscriptionResponse is returned by POST /notes/transcribe.
type TranscriptionResponse struct {
	Transcription string `json:"transcription" validate:"required"`
}
