// Package models defines the domain types for vocanote.
package models

import "time"

// DefaultLanguage is assigned to notes saved without a language.
const DefaultLanguage = "English"

// Note is a user-owned note with optional AI-generated metadata.
type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteInput holds the mutable fields of a note as supplied by a client.
// A nil Keywords slice is stored as an empty list and an empty Language as
// DefaultLanguage.
type NoteInput struct {
	Title    string
	Content  string
	Summary  string
	Keywords []string
	Language string
}
