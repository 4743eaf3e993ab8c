package summarize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Defaults for the Gemini API.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultGeminiModel   = "gemini-2.0-flash"

	geminiAPIVersion = "v1beta"
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiClient is a Generator backed by the Gemini API.
type GeminiClient struct {
	cfg    GeminiConfig
	client *genai.Client
}

// NewGeminiClient creates a GeminiClient, filling unset fields with defaults.
// It fails when no API key is configured.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cfg: cfg, client: client}, nil
}

// Generate implements Generator.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates returned")
	}
	out := resp.Text()
	if out == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}
