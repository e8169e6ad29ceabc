// Package dto holds request inputs and response payloads for the handlers.
package dto

import (
	"strconv"
	"time"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/validation"
)

// Transcription listing limits.
const (
	DefaultListLimit = 10
	MinListLimit     = 1
	MaxListLimit     = 100

	// MaxContentLength is the longest accepted transcription text.
	MaxContentLength = model.MaxContentLength

	// DefaultTranscriptionType is applied when type is omitted.
	DefaultTranscriptionType = "real-time"
)

// CreateTranscriptionRequest is the body of POST /transcriptions.
type CreateTranscriptionRequest struct {
	Content string `json:"content"`
	// Type is accepted and defaulted but not stored.
	Type string `json:"type,omitempty"`
}

// ApplyDefaults fills optional fields.
func (r *CreateTranscriptionRequest) ApplyDefaults() {
	if r.Type == "" {
		r.Type = DefaultTranscriptionType
	}
}

// Validate checks content length.
func (r *CreateTranscriptionRequest) Validate() error {
	return validation.Result(validation.Field("content", r.Content,
		validation.Rule{Tag: "min=1", Message: "Content cannot be empty"},
		validation.Rule{Tag: "max=" + strconv.Itoa(MaxContentLength), Message: "Content is too long"},
	))
}

// ListTranscriptionsQuery is the parsed query string of GET /transcriptions.
type ListTranscriptionsQuery struct {
	Limit     int
	NextToken string
}

// ParseListTranscriptionsQuery parses and checks the listing query parameters.
func ParseListTranscriptionsQuery(params map[string]string) (ListTranscriptionsQuery, error) {
	q := ListTranscriptionsQuery{
		Limit:     DefaultListLimit,
		NextToken: params["nextToken"],
	}

	raw := params["limit"]
	if raw == "" {
		return q, nil
	}

	limitViolation := apperr.Violation{
		Message: "Limit must be between 1 and 100",
		Path:    []string{"limit"},
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return q, apperr.Invalid(limitViolation)
	}
	if v := validation.Field("limit", n,
		validation.Rule{Tag: "min=" + strconv.Itoa(MinListLimit) + ",max=" + strconv.Itoa(MaxListLimit), Message: limitViolation.Message},
	); len(v) > 0 {
		return q, validation.Result(v)
	}

	q.Limit = n
	return q, nil
}

// TranscriptionResponse is a transcription in API responses.
type TranscriptionResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// TranscriptionListResponse is one page of transcriptions.
type TranscriptionListResponse struct {
	Items     []TranscriptionResponse `json:"items"`
	NextToken string                  `json:"nextToken,omitempty"`
	HasMore   bool                    `json:"hasMore"`
}

// ToTranscriptionResponse converts a model.Transcription.
func ToTranscriptionResponse(t model.Transcription) TranscriptionResponse {
	return TranscriptionResponse{
		ID:        t.ID,
		Content:   t.Content,
		CreatedAt: t.CreatedAt.UTC().Format(model.TimestampLayout),
	}
}

// ToTranscriptionListResponse converts a page of transcriptions.
func ToTranscriptionListResponse(page model.Page[model.Transcription]) TranscriptionListResponse {
	items := make([]TranscriptionResponse, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, ToTranscriptionResponse(t))
	}
	return TranscriptionListResponse{
		Items:     items,
		NextToken: page.NextToken,
		HasMore:   page.HasMore,
	}
}

// downloadExportLayout mirrors the es-ES locale date format.
const downloadExportLayout = "2/1/2006, 15:04:05"

// DownloadFilename returns the attachment name for a transcription export.
func DownloadFilename(id string, now time.Time) string {
	return "transcription_" + id + "_" + now.UTC().Format("2006-01-02") + ".txt"
}

// DownloadBody renders the plain-text export of a transcription.
func DownloadBody(t model.Transcription, now time.Time) string {
	createdAt := now.UTC().Format(model.TimestampLayout)
	if !t.CreatedAt.IsZero() {
		createdAt = t.CreatedAt.UTC().Format(model.TimestampLayout)
	}

	return "Transcripción\n" +
		"================\n\n" +
		"ID: " + t.ID + "\n" +
		"Fecha: " + createdAt + "\n" +
		"Exportado: " + now.Format(downloadExportLayout) + "\n\n" +
		"Contenido:\n" +
		"----------\n" +
		t.Content + "\n\n" +
		"---\n" +
		"Generado por Sistema de Transcripciones\n"
}
