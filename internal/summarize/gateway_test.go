package summarize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/vocanote/internal/apperr"
)

// fakeGenerator answers keyword prompts with keywords and everything else
// with summary.
type fakeGenerator struct {
	summary    string
	keywords   string
	summaryErr error
	keywordErr error

	mu      sync.Mutex
	prompts []string
	calls   atomic.Int32
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if strings.Contains(prompt, "Extract 5-7") {
		return f.keywords, f.keywordErr
	}
	return f.summary, f.summaryErr
}

func (f *fakeGenerator) prompt(contains string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.prompts {
		if strings.Contains(p, contains) {
			return p
		}
	}
	return ""
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSummarize_Success(t *testing.T) {
	gen := &fakeGenerator{
		summary:  " A short summary. ",
		keywords: "Go\n- bullet\n1. numbered\n\n  concurrency  \n",
	}
	gw := NewGateway(gen, quietLogger())

	res, err := gw.Summarize(context.Background(), Request{Text: "some text", TargetLength: "medium", Language: "English"})
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", res.Summary)
	assert.Equal(t, []string{"Go", "concurrency"}, res.Keywords)
	assert.Equal(t, "English", res.Language)
	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Contains(t, gen.prompt("summary of"), "medium summary")
}

func TestSummarize_EmptyTextNoBackendCall(t *testing.T) {
	gen := &fakeGenerator{summary: "x"}
	gw := NewGateway(gen, quietLogger())

	for _, text := range []string{"", "   \n\t"} {
		_, err := gw.Summarize(context.Background(), Request{Text: text, TargetLength: "brief", Language: "English"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Zero(t, gen.calls.Load())
}

func TestSummarize_EitherFailureFailsBoth(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"summary fails": {summaryErr: errors.New("quota exceeded"), keywords: "a"},
		"keywords fail": {summary: "s", keywordErr: errors.New("backend unavailable")},
		"both fail":     {summaryErr: errors.New("x"), keywordErr: errors.New("y")},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := NewGateway(gen, quietLogger()).Summarize(context.Background(), Request{Text: "t"})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, apperr.ErrSummarization)
		})
	}
}

func TestSummarize_DefaultsAndLocalization(t *testing.T) {
	gen := &fakeGenerator{summary: "s", keywords: "k"}
	gw := NewGateway(gen, quietLogger())

	res, err := gw.Summarize(context.Background(), Request{Text: "t", TargetLength: "enormous"})
	require.NoError(t, err)
	assert.Equal(t, "English", res.Language)
	assert.Contains(t, gen.prompt("summary of"), "brief summary")

	gen = &fakeGenerator{summary: "s", keywords: "k"}
	_, err = NewGateway(gen, quietLogger()).Summarize(context.Background(), Request{Text: "t", Language: "Hindi"})
	require.NoError(t, err)
	assert.Contains(t, gen.prompt("summary of"), localizedPrompts["Hindi"].summary)
	assert.Contains(t, gen.prompt("Extract 5-7"), localizedPrompts["Hindi"].keywords)

	gen = &fakeGenerator{summary: "s", keywords: "k"}
	res, err = NewGateway(gen, quietLogger()).Summarize(context.Background(), Request{Text: "t", Language: "Klingon"})
	require.NoError(t, err)
	assert.Equal(t, "Klingon", res.Language)
	assert.Contains(t, gen.prompt("summary of"), "in English.")
	assert.NotContains(t, gen.prompt("summary of"), "Klingon")
}

// rendezvousGenerator only answers once both requests are in flight.
type rendezvousGenerator struct {
	arrived sync.WaitGroup
	both    chan struct{}
	once    sync.Once
}

func newRendezvousGenerator() *rendezvousGenerator {
	r := &rendezvousGenerator{both: make(chan struct{})}
	r.arrived.Add(2)
	go func() {
		r.arrived.Wait()
		close(r.both)
	}()
	return r
}

func (r *rendezvousGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	r.arrived.Done()
	select {
	case <-r.both:
	case <-time.After(2 * time.Second):
		return "", errors.New("the other request never started")
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if strings.Contains(prompt, "Extract 5-7") {
		return "alpha\nbeta", nil
	}
	return "summary", nil
}

func TestSummarize_RequestsRunConcurrently(t *testing.T) {
	res, err := NewGateway(newRendezvousGenerator(), quietLogger()).
		Summarize(context.Background(), Request{Text: "t"})
	require.NoError(t, err)
	assert.Equal(t, "summary", res.Summary)
	assert.Equal(t, []string{"alpha", "beta"}, res.Keywords)
}

// cancelObserver fails the summary request at once and holds the keyword
// request until its context is cancelled.
type cancelObserver struct {
	keywordStarted chan struct{}
	cancelled      atomic.Bool
}

func (c *cancelObserver) Generate(ctx context.Context, prompt string) (string, error) {
	if !strings.Contains(prompt, "Extract 5-7") {
		// Fail only after the keyword request is running.
		select {
		case <-c.keywordStarted:
		case <-time.After(2 * time.Second):
		}
		return "", errors.New("quota exceeded")
	}
	close(c.keywordStarted)
	select {
	case <-ctx.Done():
		c.cancelled.Store(true)
		return "", ctx.Err()
	case <-time.After(2 * time.Second):
		return "late keywords", nil
	}
}

func TestSummarize_FirstFailureCancelsOther(t *testing.T) {
	gen := &cancelObserver{keywordStarted: make(chan struct{})}

	start := time.Now()
	res, err := NewGateway(gen, quietLogger()).Summarize(context.Background(), Request{Text: "t"})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, apperr.ErrSummarization)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, gen.cancelled.Load(), "keyword request did not observe cancellation")
	assert.Less(t, time.Since(start), time.Second)
}

func TestSummarize_LanguageCaseInsensitive(t *testing.T) {
	for _, in := range []string{"hindi", "HINDI", " Hindi "} {
		gen := &fakeGenerator{summary: "s", keywords: "k"}
		res, err := NewGateway(gen, quietLogger()).Summarize(context.Background(), Request{Text: "t", Language: in})
		require.NoError(t, err)
		assert.Equal(t, "Hindi", res.Language, in)
		assert.Contains(t, gen.prompt("summary of"), localizedPrompts["Hindi"].summary, in)
	}
}

func TestCanonicalLanguage(t *testing.T) {
	assert.Equal(t, "English", CanonicalLanguage(""))
	assert.Equal(t, "English", CanonicalLanguage("english"))
	assert.Equal(t, "Kannada", CanonicalLanguage("KANNADA"))
	assert.Equal(t, "Tamil", CanonicalLanguage(" Tamil "))
}

func TestParseLength(t *testing.T) {
	assert.Equal(t, Brief, ParseLength("brief"))
	assert.Equal(t, Medium, ParseLength(" Medium "))
	assert.Equal(t, Detailed, ParseLength("detailed"))
	assert.Equal(t, Brief, ParseLength(""))
	assert.Equal(t, Brief, ParseLength("long"))
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{}, ParseKeywords(""))
	assert.Equal(t, []string{"alpha", "beta gamma"}, ParseKeywords("alpha\r\n-skip\n2nd\n\nbeta gamma"))
	assert.Equal(t, []string{"नेटवर्क (network)"}, ParseKeywords("नेटवर्क (network)\n"))
}

func TestKnownLanguages(t *testing.T) {
	langs := KnownLanguages()
	assert.Contains(t, langs, "English")
	for _, l := range langs[1:] {
		_, ok := localizedPrompts[l]
		assert.True(t, ok, "%s must have localized prompts", l)
	}
}
