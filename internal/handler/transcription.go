package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/handler/dto"
	"github.com/vocali/transcription-api/internal/response"
	"github.com/vocali/transcription-api/internal/service"
)

// ErrMissingTranscriptionID is returned when the path has no transcription id.
var ErrMissingTranscriptionID = apperr.BadRequest("Transcription ID is required")

// CreateTranscription handles POST /transcriptions.
type CreateTranscription struct {
	svc *service.TranscriptionService
}

// NewCreateTranscription creates a new CreateTranscription handler.
func NewCreateTranscription(svc *service.TranscriptionService) *CreateTranscription {
	return &CreateTranscription{svc: svc}
}

func (h *CreateTranscription) Name() string      { return "CreateTranscription" }
func (h *CreateTranscription) Methods() []string { return []string{http.MethodPost} }

func (h *CreateTranscription) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	var body dto.CreateTranscriptionRequest
	if err := ParseBody(req, &body); err != nil {
		return response.APIResponse{}, err
	}

	t, err := h.svc.Create(ctx, body.Content)
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).Created(dto.ToTranscriptionResponse(t), "Transcription created successfully"), nil
}

// ListTranscriptions handles GET /transcriptions.
type ListTranscriptions struct {
	svc *service.TranscriptionService
}

// NewListTranscriptions creates a new ListTranscriptions handler.
func NewListTranscriptions(svc *service.TranscriptionService) *ListTranscriptions {
	return &ListTranscriptions{svc: svc}
}

func (h *ListTranscriptions) Name() string      { return "GetTranscriptions" }
func (h *ListTranscriptions) Methods() []string { return []string{http.MethodGet} }

func (h *ListTranscriptions) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	q, err := dto.ParseListTranscriptionsQuery(req.QueryStringParameters)
	if err != nil {
		return response.APIResponse{}, err
	}

	page, err := h.svc.List(ctx, q.Limit, q.NextToken)
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).Success(dto.ToTranscriptionListResponse(page), "Transcriptions retrieved successfully"), nil
}

// DownloadTranscription handles GET /transcriptions/{transcriptionId}.
type DownloadTranscription struct {
	svc *service.TranscriptionService
	now func() time.Time
}

// NewDownloadTranscription creates a new DownloadTranscription handler.
// A nil now uses time.Now.
func NewDownloadTranscription(svc *service.TranscriptionService, now func() time.Time) *DownloadTranscription {
	if now == nil {
		now = time.Now
	}
	return &DownloadTranscription{svc: svc, now: now}
}

func (h *DownloadTranscription) Name() string      { return "DownloadTranscription" }
func (h *DownloadTranscription) Methods() []string { return []string{http.MethodGet} }

func (h *DownloadTranscription) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	id := strings.TrimSpace(req.PathParameters["transcriptionId"])
	if id == "" {
		return response.APIResponse{}, ErrMissingTranscriptionID
	}

	t, err := h.svc.Get(ctx, id)
	if err != nil {
		return response.APIResponse{}, err
	}

	now := h.now()
	return response.For(h.Methods()...).File(dto.DownloadFilename(t.ID, now), dto.DownloadBody(t, now)), nil
}
