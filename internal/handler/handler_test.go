package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/identity"
	"github.com/vocali/transcription-api/internal/metrics"
	"github.com/vocali/transcription-api/internal/response"
	"github.com/vocali/transcription-api/internal/testutil"
)

type stubHandler struct {
	resp  response.APIResponse
	err   error
	panic any
}

func (s *stubHandler) Name() string      { return "Stub" }
func (s *stubHandler) Methods() []string { return []string{http.MethodPost} }

func (s *stubHandler) ProcessEvent(context.Context, Request) (response.APIResponse, error) {
	if s.panic != nil {
		panic(s.panic)
	}
	return s.resp, s.err
}

func decodeBody(t *testing.T, resp response.APIResponse) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body), resp.Body)
	return body
}

func TestHandle_Success(t *testing.T) {
	logger, logs := testutil.NewLogger()
	rec := metrics.NewInMemory()
	want := response.For(http.MethodPost).Success(map[string]string{"a": "b"}, "")

	got := Handle(context.Background(), Base{Logger: logger, Metrics: rec}, &stubHandler{resp: want}, Request{Method: http.MethodPost})

	assert.Equal(t, want, got)
	assert.Contains(t, logs.String(), "Stub handler invoked")
	assert.Equal(t, uint64(1), rec.Snapshot().Requests[metrics.RequestKey{Handler: "Stub", Status: 200}].Count)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Invalid(apperr.Violation{Message: "bad", Path: []string{"x"}}), 400, "Validation Error"},
		{"bad request", apperr.BadRequest("Transcription ID is required"), 400, "Transcription ID is required"},
		{"invalid credentials", identity.ErrInvalidCredentials, 401, "Invalid credentials"},
		{"unknown user", identity.ErrUserNotFound, 404, "User not found"},
		{"duplicate", fmt.Errorf("sign up: %w", identity.ErrUserExists), 409, "User already exists"},
		{"upstream", apperr.Upstreamf(403, "Error getting token from Speechmatics", "denied"), 403, "Error getting token from Speechmatics"},
		{"upstream without status", apperr.Upstreamf(0, "boom", ""), 502, "boom"},
		{"misconfigured", apperr.MissingConfig("SPEECHMATICS_API_KEY"), 500, "SPEECHMATICS_API_KEY not configured"},
		{"unexpected", errors.New("dial tcp: timeout"), 500, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Handle(context.Background(), Base{Logger: testutil.DiscardLogger()}, &stubHandler{err: tt.err}, Request{})
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeBody(t, resp)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			assert.Equal(t, "POST,OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
		})
	}
}

func TestHandle_UpstreamCarriesDetail(t *testing.T) {
	resp := Handle(context.Background(), Base{Logger: testutil.DiscardLogger()},
		&stubHandler{err: apperr.Upstreamf(401, "Error getting token from Speechmatics", `{"detail":"x"}`)}, Request{})
	assert.Equal(t, `{"detail":"x"}`, decodeBody(t, resp)["error"])
}

func TestHandle_DoesNotLeakInternalErrors(t *testing.T) {
	logger, logs := testutil.NewLogger()
	resp := Handle(context.Background(), Base{Logger: logger}, &stubHandler{err: errors.New("secret db password")}, Request{})

	assert.NotContains(t, resp.Body, "secret")
	assert.Contains(t, logs.String(), "secret db password")
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
}

func TestHandle_RecoversPanic(t *testing.T) {
	rec := metrics.NewInMemory()
	resp := Handle(context.Background(), Base{Logger: testutil.DiscardLogger(), Metrics: rec}, &stubHandler{panic: "boom"}, Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", decodeBody(t, resp)["message"])
	assert.Equal(t, uint64(1), rec.Snapshot().Requests[metrics.RequestKey{Handler: "Stub", Status: 500}].Count)
}

func TestHandle_RecordsDuration(t *testing.T) {
	rec := metrics.NewInMemory()
	clock := testutil.SteppingClock(time.Unix(0, 0), 10*time.Millisecond)
	Handle(context.Background(), Base{Logger: testutil.DiscardLogger(), Metrics: rec, Now: clock},
		&stubHandler{resp: response.For().Empty(204)}, Request{})

	stats := rec.Snapshot().Requests[metrics.RequestKey{Handler: "Stub", Status: 204}]
	assert.Equal(t, int64(10*time.Millisecond), stats.TotalNs)
}

func TestParseBody(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseBody(Request{Body: `{"name":"x"}`}, &dst))
	assert.Equal(t, "x", dst.Name)

	err := ParseBody(Request{Body: `{`}, &dst)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.Validation, ae.Kind)
	assert.Equal(t, "Invalid JSON body", ae.Violations[0].Message)
}
