package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Defaults for the Groq Whisper endpoint.
const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "whisper-large-v3-turbo"
)

// GroqConfig configures a GroqProvider.
type GroqConfig struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

// GroqProvider calls the OpenAI-compatible audio transcription endpoint
// served by Groq.
type GroqProvider struct {
	cfg    GroqConfig
	client openai.Client
}

// NewGroqProvider creates a GroqProvider, filling unset fields with defaults.
func NewGroqProvider(cfg GroqConfig) *GroqProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := openai.NewClient(
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// Failures go straight back to the caller.
		option.WithMaxRetries(0),
	)
	return &GroqProvider{cfg: cfg, client: client}
}

// Name implements Provider.
func (p *GroqProvider) Name() string {
	return "groq"
}

// Transcribe implements Provider.
func (p *GroqProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("groq: open audio: %w", err)
	}
	defer f.Close()

	resp, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           f,
		Model:          openai.AudioModel(p.cfg.Model),
		Language:       openai.String(p.cfg.Language),
		Temperature:    openai.Float(0),
		ResponseFormat: openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("groq: %w", err)
	}
	return resp.Text, nil
}
