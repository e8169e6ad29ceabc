// Package speech is a client for the Speechmatics real-time key service and
// batch transcription API.
package speech

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vocali/transcription-api/internal/apperr"
)

// Default endpoints and settings.
const (
	DefaultRealtimeURL  = "https://mp.speechmatics.com/v1"
	DefaultBatchURL     = "https://asr.api.speechmatics.com/v2"
	DefaultAppID        = "vocali-lambda-transcription"
	DefaultPollInterval = 3 * time.Second

	DialTimeout         = 5 * time.Second
	TLSHandshakeTimeout = 5 * time.Second
)

// APIKeyEnv names the setting that holds the provider credential.
const APIKeyEnv = "SPEECHMATICS_API_KEY"

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = apperr.MissingConfig(APIKeyEnv)

// ErrJobFailed is returned when a batch job ends without a transcript.
var ErrJobFailed = errors.New("speechmatics: job did not complete")

// Config configures the client.
type Config struct {
	APIKey       string
	RealtimeURL  string
	BatchURL     string
	AppID        string
	PollInterval time.Duration
}

// Client calls Speechmatics over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A nil httpClient uses NewHTTPClient.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = DefaultRealtimeURL
	}
	if cfg.BatchURL == "" {
		cfg.BatchURL = DefaultBatchURL
	}
	if cfg.AppID == "" {
		cfg.AppID = DefaultAppID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	cfg.RealtimeURL = strings.TrimRight(cfg.RealtimeURL, "/")
	cfg.BatchURL = strings.TrimRight(cfg.BatchURL, "/")

	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{cfg: cfg, http: httpClient}
}

// NewHTTPClient returns a client with connection-level timeouts only.
// Request lifetime is bounded by the caller's context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: TLSHandshakeTimeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Ready reports ErrMissingAPIKey when the client cannot authenticate.
func (c *Client) Ready() error {
	if c.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("User-Agent", c.cfg.AppID)
}
