package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/validation"
)

func violationsOf(t *testing.T, err error) []apperr.Violation {
	t.Helper()
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Validation, ae.Kind)
	return ae.Violations
}

func messages(v []apperr.Violation) []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		out = append(out, e.Message)
	}
	return out
}

func TestCreateTranscriptionRequest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"single char", "a", ""},
		{"at limit", strings.Repeat("a", MaxContentLength), ""},
		{"empty", "", "Content cannot be empty"},
		{"over limit", strings.Repeat("a", MaxContentLength+1), "Content is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateTranscriptionRequest{Content: tt.content}
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			v := violationsOf(t, err)
			require.Len(t, v, 1)
			assert.Equal(t, tt.wantErr, v[0].Message)
			assert.Equal(t, []string{"content"}, v[0].Path)
		})
	}
}

func TestCreateTranscriptionRequest_DefaultType(t *testing.T) {
	var req CreateTranscriptionRequest
	require.NoError(t, validation.DecodeJSON(`{"content":"hello"}`, &req))
	assert.Equal(t, "real-time", req.Type)

	require.NoError(t, validation.DecodeJSON(`{"content":"hello","type":"batch"}`, &req))
	assert.Equal(t, "batch", req.Type)
}

func TestParseListTranscriptionsQuery(t *testing.T) {
	tests := []struct {
		name      string
		params    map[string]string
		wantLimit int
		wantErr   bool
	}{
		{"defaults", nil, 10, false},
		{"empty limit", map[string]string{"limit": ""}, 10, false},
		{"lower bound", map[string]string{"limit": "1"}, 1, false},
		{"upper bound", map[string]string{"limit": "100"}, 100, false},
		{"zero", map[string]string{"limit": "0"}, 0, true},
		{"over", map[string]string{"limit": "101"}, 0, true},
		{"negative", map[string]string{"limit": "-5"}, 0, true},
		{"not a number", map[string]string{"limit": "abc"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseListTranscriptionsQuery(tt.params)
			if tt.wantErr {
				v := violationsOf(t, err)
				require.Len(t, v, 1)
				assert.Equal(t, "Limit must be between 1 and 100", v[0].Message)
				assert.Equal(t, []string{"limit"}, v[0].Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, q.Limit)
		})
	}
}

func TestParseListTranscriptionsQuery_PassesTokenThrough(t *testing.T) {
	q, err := ParseListTranscriptionsQuery(map[string]string{"nextToken": "opaque=="})
	require.NoError(t, err)
	assert.Equal(t, "opaque==", q.NextToken)
}

func TestRegisterRequest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		req := RegisterRequest{Email: "a@b.com", Password: "Abc12345!", ConfirmPassword: "Abc12345!"}
		assert.NoError(t, req.Validate())
	})

	t.Run("invalid email", func(t *testing.T) {
		req := RegisterRequest{Email: "invalid-email", Password: "Abc12345!", ConfirmPassword: "Abc12345!"}
		v := violationsOf(t, req.Validate())
		require.Len(t, v, 1)
		assert.Equal(t, "Invalid email address", v[0].Message)
		assert.Equal(t, []string{"email"}, v[0].Path)
	})

	t.Run("weak password reports every rule", func(t *testing.T) {
		req := RegisterRequest{Email: "a@b.com", Password: "weak", ConfirmPassword: "weak"}
		v := violationsOf(t, req.Validate())
		assert.ElementsMatch(t, []string{
			"Password must be at least 8 characters long",
			"Password must contain at least one uppercase letter",
			"Password must contain at least one number",
			"Password must contain at least one special character (@$!%*?&)",
		}, messages(v))
		for _, e := range v {
			assert.Equal(t, []string{"password"}, e.Path)
		}
	})

	t.Run("mismatch is form level", func(t *testing.T) {
		req := RegisterRequest{Email: "a@b.com", Password: "Abc12345!", ConfirmPassword: "Xyz98765?"}
		v := violationsOf(t, req.Validate())
		require.Len(t, v, 1)
		assert.Equal(t, "Passwords do not match", v[0].Message)
		assert.Empty(t, v[0].Path)
	})

	t.Run("mismatch reported alongside field errors", func(t *testing.T) {
		req := RegisterRequest{Email: "nope", Password: "weak", ConfirmPassword: "other"}
		v := violationsOf(t, req.Validate())
		assert.Contains(t, messages(v), "Passwords do not match")
		assert.Contains(t, messages(v), "Invalid email address")
	})
}

func TestLoginRequest(t *testing.T) {
	req := LoginRequest{Email: "a@b.com", Password: "x"}
	assert.NoError(t, req.Validate())

	req = LoginRequest{Email: "bad", Password: ""}
	v := violationsOf(t, req.Validate())
	assert.ElementsMatch(t, []string{"Invalid email address", "Password is required"}, messages(v))
}

func TestSpeechTokenRequest_Defaults(t *testing.T) {
	var req SpeechTokenRequest
	require.NoError(t, validation.DecodeJSON("", &req))
	assert.Equal(t, 3600, req.Seconds())

	req = SpeechTokenRequest{}
	require.NoError(t, validation.DecodeJSON(`{"ttl":null}`, &req))
	assert.Equal(t, 3600, req.Seconds())

	req = SpeechTokenRequest{}
	require.NoError(t, validation.DecodeJSON(`{"ttl":60}`, &req))
	assert.Equal(t, 60, req.Seconds())

	for _, body := range []string{`{"ttl":0}`, `{"ttl":-1}`} {
		req = SpeechTokenRequest{}
		v := violationsOf(t, validation.DecodeJSON(body, &req))
		require.Len(t, v, 1, body)
		assert.Equal(t, []string{"ttl"}, v[0].Path)
		assert.Equal(t, "TTL must be a positive number of seconds", v[0].Message)
	}
}

func TestTranscribeFileRequest(t *testing.T) {
	var req TranscribeFileRequest
	require.NoError(t, validation.DecodeJSON(`{"fileData":"aGVsbG8=","fileName":"a.wav"}`, &req))
	assert.Equal(t, "es", req.Language)
	assert.Equal(t, "json-v2", req.Format)

	req = TranscribeFileRequest{}
	v := violationsOf(t, validation.DecodeJSON(`{}`, &req))
	assert.ElementsMatch(t, []string{"File data is required", "File name is required"}, messages(v))

	req = TranscribeFileRequest{}
	v = violationsOf(t, validation.DecodeJSON(`{"fileData":"not base64!","fileName":"a.wav","format":"xml"}`, &req))
	assert.ElementsMatch(t, []string{"File data must be base64 encoded", "Format must be one of json-v2, txt, srt"}, messages(v))
}

func TestDownload(t *testing.T) {
	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	now := time.Date(2026, 10, 14, 13, 5, 9, 0, time.UTC)
	tr := model.Transcription{ID: "01J9Z", Content: "hola mundo", CreatedAt: created}

	assert.Equal(t, "transcription_01J9Z_2026-10-14.txt", DownloadFilename(tr.ID, now))

	body := DownloadBody(tr, now)
	assert.Contains(t, body, "ID: 01J9Z\n")
	assert.Contains(t, body, "Fecha: 2026-10-01T09:30:00.000Z\n")
	assert.Contains(t, body, "Exportado: 14/10/2026, 13:05:09\n")
	assert.Contains(t, body, "Contenido:\n----------\nhola mundo\n")
	assert.Equal(t, body, DownloadBody(tr, now))
}

func TestToTranscriptionListResponse_EmptyItemsIsArray(t *testing.T) {
	resp := ToTranscriptionListResponse(model.Page[model.Transcription]{})
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}
