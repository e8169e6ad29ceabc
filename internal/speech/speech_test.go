package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocali/transcription-api/internal/apperr"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:       "secret",
		RealtimeURL:  srv.URL + "/v1/",
		BatchURL:     srv.URL + "/v2",
		PollInterval: time.Millisecond,
	}, srv.Client())
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	assert.Equal(t, DefaultRealtimeURL, c.cfg.RealtimeURL)
	assert.Equal(t, DefaultBatchURL, c.cfg.BatchURL)
	assert.Equal(t, DefaultAppID, c.cfg.AppID)
	assert.Equal(t, DefaultPollInterval, c.cfg.PollInterval)
	assert.ErrorIs(t, c.Ready(), ErrMissingAPIKey)
}

func TestRealtimeToken_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/api_keys", r.URL.Path)
		assert.Equal(t, "rt", r.URL.Query().Get("type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultAppID, r.Header.Get("User-Agent"))

		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 60, body["ttl"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"key_value":"tmp-key","expires_at":"2026-01-01T00:01:00Z"}`)
	}))

	tok, err := c.RealtimeToken(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, "tmp-key", tok.Key)
	assert.Equal(t, "2026-01-01T00:01:00Z", tok.ExpiresAt)
}

func TestRealtimeToken_UpstreamError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"detail":"bad key"}`)
	}))

	_, err := c.RealtimeToken(context.Background(), 60)
	require.Error(t, err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Upstream, e.Kind)
	assert.Equal(t, http.StatusForbidden, e.Status)
	assert.Equal(t, TokenErrorMessage, e.Message)
	assert.Equal(t, `{"detail":"bad key"}`, e.Detail)
}

func TestRealtimeToken_MissingKey(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer srv.Close()

	c := New(Config{RealtimeURL: srv.URL}, srv.Client())
	_, err := c.RealtimeToken(context.Background(), 60)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, apperr.Misconfigured, apperr.KindOf(err))
	assert.False(t, called.Load())
}

func TestRawString(t *testing.T) {
	assert.Equal(t, "x", rawString(json.RawMessage(`"x"`)))
	assert.Equal(t, "1700000000", rawString(json.RawMessage(`1700000000`)))
	assert.Equal(t, "", rawString(json.RawMessage(`null`)))
}

// batchServer fakes a job that is running for the first `running` polls.
func batchServer(t *testing.T, running int32, final, transcript string) http.Handler {
	t.Helper()
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.JSONEq(t, `{"type":"transcription","transcription_config":{"language":"es"}}`, r.FormValue("config"))

		f, hdr, err := r.FormFile("data_file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "audio.wav", hdr.Filename)
		assert.Equal(t, "RIFF", string(data))

		_, _ = io.WriteString(w, `{"id":"job-1"}`)
	})
	mux.HandleFunc("GET /v2/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		status := "running"
		if polls.Add(1) > running {
			status = final
		}
		_, _ = io.WriteString(w, `{"job":{"id":"job-1","status":"`+status+`"}}`)
	})
	mux.HandleFunc("GET /v2/jobs/job-1/transcript", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("format"))
		_, _ = io.WriteString(w, transcript)
	})
	return mux
}

var audio = File{Name: "audio.wav", Data: []byte("RIFF")}

func TestTranscribe_JSONv2(t *testing.T) {
	transcript := `{"results":[{"alternatives":[{"content":"hola"}]},{"alternatives":[]},{"alternatives":[{"content":"mundo"},{"content":"x"}]}]}`
	c := newTestClient(t, batchServer(t, 2, "done", transcript))

	text, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Language: "es", Format: FormatJSONv2})
	require.NoError(t, err)
	assert.Equal(t, "hola  mundo", text)
}

func TestTranscribe_PlainText(t *testing.T) {
	c := newTestClient(t, batchServer(t, 0, "done", "hola mundo\n"))

	text, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Language: "es", Format: FormatText})
	require.NoError(t, err)
	assert.Equal(t, "hola mundo\n", text)
}

func TestTranscribe_Rejected(t *testing.T) {
	c := newTestClient(t, batchServer(t, 1, "rejected", ""))

	_, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Language: "es"})
	assert.ErrorIs(t, err, ErrJobFailed)
}

func TestTranscribe_ContextCanceled(t *testing.T) {
	c := newTestClient(t, batchServer(t, 1<<30, "done", ""))
	c.cfg.PollInterval = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Transcribe(ctx, audio, TranscribeOptions{Language: "es"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTranscribe_SubmitFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))

	_, err := c.Transcribe(context.Background(), audio, TranscribeOptions{Language: "es"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestTranscript_Text(t *testing.T) {
	var tr Transcript
	assert.Equal(t, "", tr.Text())
}
