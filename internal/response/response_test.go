package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocali/transcription-api/internal/apperr"
)

func decode(t *testing.T, resp APIResponse) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func TestFor_Methods(t *testing.T) {
	tests := []struct {
		name    string
		methods []string
		want    string
	}{
		{"default", nil, "GET,POST,PUT,DELETE,OPTIONS"},
		{"single verb", []string{http.MethodPost}, "POST,OPTIONS"},
		{"already has options", []string{"post", "options"}, "POST,OPTIONS"},
		{"two verbs", []string{http.MethodGet, http.MethodPost}, "GET,POST,OPTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.methods...).Methods())
		})
	}
}

func TestCORSHeadersAlwaysPresent(t *testing.T) {
	b := For(http.MethodGet)
	responses := []APIResponse{
		b.Success(nil, ""),
		b.Created(map[string]string{"a": "b"}, "made"),
		b.ValidationError(nil, ""),
		b.Unauthorized(""),
		b.NotFound(""),
		b.Conflict(""),
		b.InternalServerError(""),
		b.File("a.txt", "hi"),
		b.Empty(http.StatusOK),
	}

	for _, r := range responses {
		assert.Equal(t, "*", r.Headers["Access-Control-Allow-Origin"])
		assert.Equal(t, "Content-Type,Authorization", r.Headers["Access-Control-Allow-Headers"])
		assert.Equal(t, "GET,OPTIONS", r.Headers["Access-Control-Allow-Methods"])
	}
}

func TestDefaultMessages(t *testing.T) {
	b := For()
	tests := []struct {
		resp    APIResponse
		status  int
		message string
	}{
		{b.Success(nil, ""), http.StatusOK, "Success"},
		{b.ValidationError(nil, ""), http.StatusBadRequest, "Validation Error"},
		{b.Unauthorized(""), http.StatusUnauthorized, "Unauthorized"},
		{b.NotFound(""), http.StatusNotFound, "Not Found"},
		{b.Conflict(""), http.StatusConflict, "Conflict"},
		{b.InternalServerError(""), http.StatusInternalServerError, "Internal Server Error"},
		{b.Unauthorized("Invalid credentials"), http.StatusUnauthorized, "Invalid credentials"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.resp.StatusCode)
		assert.Equal(t, tt.message, decode(t, tt.resp)["message"])
	}
}

func TestErrorOmitsEmptyErrors(t *testing.T) {
	body := decode(t, For().NotFound(""))
	_, ok := body["errors"]
	assert.False(t, ok)

	body = decode(t, For().ValidationError([]apperr.Violation{
		{Message: "Passwords do not match", Path: []string{}},
	}, ""))
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	entry := errs[0].(map[string]any)
	assert.Equal(t, "Passwords do not match", entry["message"])
	assert.Equal(t, []any{}, entry["path"])
}

func TestSuccessCarriesData(t *testing.T) {
	body := decode(t, For().Success(map[string]string{"email": "a@b.com"}, "Registration successful"))
	assert.Equal(t, "Registration successful", body["message"])
	assert.Equal(t, map[string]any{"email": "a@b.com"}, body["data"])
}

func TestResponsesDoNotShareHeaders(t *testing.T) {
	b := For(http.MethodPost)
	first := b.Success(nil, "")
	second := b.Success(nil, "")

	first.Headers["X-Mutated"] = "yes"
	_, ok := second.Headers["X-Mutated"]
	assert.False(t, ok)
}

func TestFile(t *testing.T) {
	resp := For(http.MethodGet).File("transcription_abc_2026-10-14.txt", "hello")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", resp.Body)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Headers["Content-Type"])
	assert.Equal(t, `attachment; filename="transcription_abc_2026-10-14.txt"`, resp.Headers["Content-Disposition"])
	assert.Equal(t, "no-cache", resp.Headers["Cache-Control"])
}

func TestJSONFallbackOnUnsupportedValue(t *testing.T) {
	resp := For().JSON(http.StatusOK, map[string]any{"ch": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", decode(t, resp)["message"])
}
