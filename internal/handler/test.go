package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/response"
)

// Status reports that the deployment is reachable. It serves GET /test.
type Status struct {
	environment string
	now         func() time.Time
}

// NewStatus creates a new Status handler.
func NewStatus(environment string, now func() time.Time) *Status {
	if environment == "" {
		environment = "development"
	}
	if now == nil {
		now = time.Now
	}
	return &Status{environment: environment, now: now}
}

// StatusResponse is the data of GET /test.
type StatusResponse struct {
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Stage       string `json:"stage"`
}

func (h *Status) Name() string      { return "Test" }
func (h *Status) Methods() []string { return []string{http.MethodGet} }

func (h *Status) ProcessEvent(_ context.Context, req Request) (response.APIResponse, error) {
	stage := req.Stage
	if stage == "" {
		stage = "unknown"
	}
	return response.For(h.Methods()...).Success(StatusResponse{
		Message:     "Todo está funcionando correctamente!",
		Timestamp:   h.now().UTC().Format(model.TimestampLayout),
		Environment: h.environment,
		Stage:       stage,
	}, "Test endpoint working"), nil
}
