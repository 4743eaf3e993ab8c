// Package apperr defines the error taxonomy shared by every layer.
package apperr

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrTranscription      = errors.New("transcription failed")
	ErrSummarization      = errors.New("summarization failed")
)

// Error attaches a message to one of the sentinel kinds above.
// For ErrValidation and ErrConflict the message is safe to show to clients;
// for upstream kinds it carries the backend detail and is only logged.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an *Error of the given kind.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation is shorthand for New(ErrValidation, msg).
func Validation(msg string) error {
	return New(ErrValidation, msg)
}

// Message returns the attached message of err, or the error text of the
// kind when err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}
