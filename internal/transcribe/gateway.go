// Package transcribe turns uploaded audio into text through an external
// speech-to-text provider.
package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/storage"
)

// MaxAudioBytes is the largest accepted audio payload.
const MaxAudioBytes int64 = 10 << 20

// stagedExt is the extension given to staged payloads; browsers record webm.
const stagedExt = ".webm"

// Provider is a speech-to-text backend that reads audio from a local file.
type Provider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Name() string
}

// Gateway stages an audio payload, forwards it to the provider and removes
// the staged file on every exit path.
type Gateway struct {
	provider Provider
	staging  *storage.Staging
	logger   *slog.Logger
	maxBytes int64
}

// NewGateway creates a Gateway with the MaxAudioBytes ceiling.
func NewGateway(provider Provider, staging *storage.Staging, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{provider: provider, staging: staging, logger: logger, maxBytes: MaxAudioBytes}
}

// MaxBytes returns the payload ceiling.
func (g *Gateway) MaxBytes() int64 {
	return g.maxBytes
}

// Transcribe returns the text spoken in audio. The call blocks until the
// provider answers or ctx is done.
func (g *Gateway) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	if audio == nil {
		return "", apperr.Validation("no audio file provided")
	}

	path, size, err := g.staging.Stage(io.LimitReader(audio, g.maxBytes+1), stagedExt)
	if err != nil {
		return "", fmt.Errorf("transcribe: stage audio: %w", err)
	}
	defer g.release(path)

	if size == 0 {
		return "", apperr.Validation("no audio file provided")
	}
	if size > g.maxBytes {
		return "", apperr.New(apperr.ErrPayloadTooLarge, fmt.Sprintf("audio exceeds %d bytes", g.maxBytes))
	}

	g.logger.Debug("transcribe: forwarding audio",
		slog.String("provider", g.provider.Name()),
		slog.Int64("bytes", size))

	text, err := g.provider.Transcribe(ctx, path)
	if err != nil {
		g.logger.Error("transcribe: provider failed",
			slog.String("provider", g.provider.Name()),
			slog.String("error", err.Error()))
		return "", apperr.New(apperr.ErrTranscription, err.Error())
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Warn("transcribe: provider returned no text", slog.String("provider", g.provider.Name()))
		return "", apperr.New(apperr.ErrTranscription, "provider returned no text")
	}
	return text, nil
}

func (g *Gateway) release(path string) {
	if err := g.staging.Remove(path); err != nil {
		g.logger.Error("transcribe: remove staged audio failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}
