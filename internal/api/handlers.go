package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/auth"
	"github.com/starford/vocanote/internal/noteservice"
	"github.com/starford/vocanote/internal/summarize"
	"github.com/starford/vocanote/internal/users"
)

const maxJSONBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	users       *users.Service
	notes       *noteservice.Service
	tokens      TokenIssuer
	transcriber Transcriber
	summarizer  Summarizer
	logger      *slog.Logger
	devMode     bool
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:       d.Users,
		notes:       d.Notes,
		tokens:      d.Tokens,
		transcriber: d.Transcriber,
		summarizer:  d.Summarizer,
		logger:      logger,
		devMode:     d.DevMode,
	}
}

// decodeJSON reads a JSON body into v and runs its Validate method.
func decodeJSON[T interface{ Validate() error }](w http.ResponseWriter, r *http.Request, v T) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	if err := v.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

// noteID parses the {id} path segment. Malformed ids are reported as not
// found, like ids that do not exist.
func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

// Register handles POST /api/auth/register.
//
//	@Summary		Register a new user
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Credentials"
//	@Success		201		{object}	messageResponse
//	@Failure		400		{object}	errResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "Registration failed")
		return
	}
	if err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		h.writeError(w, r, err, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

// Login handles POST /api/auth/login.
//
//	@Summary		Exchange credentials for a session token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	errResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "Login failed")
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err, "Login failed")
		return
	}
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		h.writeError(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User:  auth.Identity{UserID: user.ID, Username: user.Username},
	})
}

// Me handles GET /api/auth/me.
//
//	@Summary		Get the authenticated user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	auth.Identity
//	@Failure		401	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, auth.Identity{UserID: user.ID, Username: user.Username})
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List the caller's notes, newest first
//	@Tags			notes
//	@Produce		json
//	@Success		200	{array}		models.Note
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.ListNotes(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch note")
		return
	}
	note, err := h.notes.GetNote(r.Context(), identity(r).UserID, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to fetch note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "Failed to create note")
		return
	}
	note, err := h.notes.CreateNote(r.Context(), identity(r).UserID, req.input())
	if err != nil {
		h.writeError(w, r, err, "Failed to create note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PUT /api/notes/{id}. Last write wins.
//
//	@Summary		Overwrite a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Note id"
//	@Param			body	body		NoteRequest	true	"New note fields"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to update note")
		return
	}
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "Failed to update note")
		return
	}
	note, err := h.notes.UpdateNote(r.Context(), identity(r).UserID, id, req.input())
	if err != nil {
		h.writeError(w, r, err, "Failed to update note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	messageResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete note")
		return
	}
	if err := h.notes.DeleteNote(r.Context(), identity(r).UserID, id); err != nil {
		h.writeError(w, r, err, "Failed to delete note")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted successfully"})
}

// Transcribe handles POST /api/notes/transcribe (multipart/form-data,
// field "audio"). The audio part is streamed straight into the gateway.
//
//	@Summary		Transcribe recorded audio
//	@Tags			notes
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			audio	formData	file	true	"Audio recording"
//	@Success		200		{object}	TranscriptionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		413		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/notes/transcribe [post]
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing and other small fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.transcriber.MaxBytes()+1<<20)

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No audio file provided"))
		return
	}

	var part *multipart.Part
	for {
		p, err := mr.NextPart()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("audio file too large"))
				return
			}
			break
		}
		if p.FormName() == "audio" && p.FileName() != "" {
			part = p
			break
		}
		p.Close()
	}
	if part == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No audio file provided"))
		return
	}
	defer part.Close()

	text, err := h.transcriber.Transcribe(r.Context(), part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = apperr.New(apperr.ErrPayloadTooLarge, "audio file too large")
		}
		h.writeError(w, r, err, "Failed to process transcription")
		return
	}
	writeJSON(w, http.StatusOK, TranscriptionResponse{Transcription: text})
}

// GenerateSummary handles POST /api/summary/generate.
//
//	@Summary		Summarize text and extract keywords
//	@Tags			summary
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SummaryRequest	true	"Text and options"
//	@Success		200		{object}	summarize.Result
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/summary/generate [post]
func (h *Handler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, "Failed to generate summary")
		return
	}
	res, err := h.summarizer.Summarize(r.Context(), summarize.Request{
		Text:         req.Text,
		TargetLength: req.TargetLength,
		Language:     req.Language,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to generate summary")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
