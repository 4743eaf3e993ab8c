// Package summarize produces summaries and keyword lists through an
// external generative-language backend.
package summarize

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vocanote/internal/apperr"
)

// Generator is a text-in/text-out generative backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request is the input of a summarization.
type Request struct {
	Text         string
	TargetLength string
	Language     string
}

// Result is a generated summary with its keywords.
type Result struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Language string   `json:"language"`
}

// Gateway runs the summary and keyword requests against a Generator.
type Gateway struct {
	gen    Generator
	logger *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(gen Generator, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{gen: gen, logger: logger}
}

// Summarize issues the summary and keyword requests concurrently and waits
// for both. If either fails the whole call fails with
// apperr.ErrSummarization; no partial result is returned.
func (g *Gateway) Summarize(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.Validation("text is required")
	}
	length := ParseLength(req.TargetLength)
	language := CanonicalLanguage(req.Language)

	var summary, rawKeywords string
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := g.gen.Generate(egCtx, summaryPrompt(text, length, language))
		if err != nil {
			return err
		}
		summary = out
		return nil
	})
	eg.Go(func() error {
		out, err := g.gen.Generate(egCtx, keywordPrompt(text, language))
		if err != nil {
			return err
		}
		rawKeywords = out
		return nil
	})
	if err := eg.Wait(); err != nil {
		g.logger.Error("summarize: backend failed",
			slog.String("language", language),
			slog.String("error", err.Error()))
		return nil, apperr.New(apperr.ErrSummarization, err.Error())
	}

	keywords := ParseKeywords(rawKeywords)
	g.logger.Debug("summarize: generated",
		slog.String("language", language),
		slog.String("length", string(length)),
		slog.Int("keywords", len(keywords)))

	return &Result{
		Summary:  strings.TrimSpace(summary),
		Keywords: keywords,
		Language: language,
	}, nil
}

// ParseKeywords splits backend output into keywords: one per line, trimmed,
// skipping blank lines and lines that start with a dash or a digit.
func ParseKeywords(raw string) []string {
	out := []string{}
	for _, line := range strings.Split(raw, "\n") {
		k := strings.TrimSpace(line)
		if k == "" || strings.HasPrefix(k, "-") || (k[0] >= '0' && k[0] <= '9') {
			continue
		}
		out = append(out, k)
	}
	return out
}
