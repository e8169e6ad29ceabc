package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vocali/transcription-api/internal/apperr"
)

// TokenErrorMessage is the client message for a rejected token request.
const TokenErrorMessage = "Error getting token from Speechmatics"

// RealtimeToken is a temporary key for the real-time API.
type RealtimeToken struct {
	Key       string
	ExpiresAt string
}

type tokenResponse struct {
	KeyValue  string          `json:"key_value"`
	ExpiresAt json.RawMessage `json:"expires_at"`
}

// RealtimeToken requests a real-time key valid for ttl seconds.
// A non-2xx answer is returned as an apperr.Upstream error carrying the status.
func (c *Client) RealtimeToken(ctx context.Context, ttl int) (RealtimeToken, error) {
	if err := c.Ready(); err != nil {
		return RealtimeToken{}, err
	}

	payload, err := json.Marshal(map[string]int{"ttl": ttl})
	if err != nil {
		return RealtimeToken{}, fmt.Errorf("encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RealtimeURL+"/api_keys?type=rt", bytes.NewReader(payload))
	if err != nil {
		return RealtimeToken{}, fmt.Errorf("build token request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return RealtimeToken{}, fmt.Errorf("request realtime token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RealtimeToken{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RealtimeToken{}, apperr.Upstreamf(resp.StatusCode, TokenErrorMessage, string(body))
	}

	var out tokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return RealtimeToken{}, fmt.Errorf("decode token response: %w", err)
	}

	return RealtimeToken{Key: out.KeyValue, ExpiresAt: rawString(out.ExpiresAt)}, nil
}

// rawString returns a JSON string's value, or the raw JSON text of any other value.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
