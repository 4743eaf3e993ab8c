package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.webm")
	require.NoError(t, os.WriteFile(p, []byte("webm-bytes"), 0o600))
	return p
}

func TestGroqProvider_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, DefaultGroqModel, r.FormValue("model"))
		assert.Equal(t, "json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.NotEmpty(t, r.FormValue("temperature"))

		f, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "webm-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello there"}`))
	}))
	defer srv.Close()

	p := NewGroqProvider(GroqConfig{BaseURL: srv.URL + "/v1", APIKey: "key-1"})
	text, err := p.Transcribe(context.Background(), writeAudio(t))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
	assert.Equal(t, "groq", p.Name())
}

func TestGroqProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"could not decode audio"}}`))
	}))
	defer srv.Close()

	p := NewGroqProvider(GroqConfig{BaseURL: srv.URL})
	_, err := p.Transcribe(context.Background(), writeAudio(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not decode audio")
	assert.Contains(t, err.Error(), "400")
}

func TestGroqProvider_DefaultsAndTrailingSlash(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	for _, base := range []string{srv.URL + "/openai/v1", srv.URL + "/openai/v1/"} {
		_, err := NewGroqProvider(GroqConfig{BaseURL: base}).Transcribe(context.Background(), writeAudio(t))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"/openai/v1/audio/transcriptions", "/openai/v1/audio/transcriptions"}, paths)

	p := NewGroqProvider(GroqConfig{})
	assert.Equal(t, DefaultGroqBaseURL, p.cfg.BaseURL)
	assert.Equal(t, DefaultGroqModel, p.cfg.Model)
	assert.Equal(t, "en", p.cfg.Language)
}

func TestGroqProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewGroqProvider(GroqConfig{BaseURL: url})
	_, err := p.Transcribe(context.Background(), writeAudio(t))
	assert.Error(t, err)
}

func TestGroqProvider_MissingFile(t *testing.T) {
	p := NewGroqProvider(GroqConfig{})
	_, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.webm"))
	assert.Error(t, err)
}
