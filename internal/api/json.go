package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/vocanote/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error   string `json:"error" validate:"required"`
	Message string `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps err onto the HTTP error taxonomy. Client-safe messages
// are returned for validation and conflict errors; upstream and internal
// failures are logged and answered with a generic message. fallback is the
// public message used for 500 responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusBadRequest, errorBody(apperr.Message(err)))
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid credentials"))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("Invalid token"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrPayloadTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(apperr.Message(err)))
	case errors.Is(err, apperr.ErrTranscription), errors.Is(err, apperr.ErrSummarization):
		// Gateways already logged the backend detail.
		writeJSON(w, http.StatusInternalServerError, errorBody(fallback))
	default:
		h.logger.Error("request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		body := errorBody(fallback)
		if h.devMode {
			body.Message = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}
