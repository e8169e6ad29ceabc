package service

import (
	"context"
	"log/slog"

	"github.com/vocali/transcription-api/internal/metrics"
	"github.com/vocali/transcription-api/internal/model"
)

// TranscriptionService manages transcription records.
type TranscriptionService struct {
	store   TranscriptionStore
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewTranscriptionService creates a new TranscriptionService.
func NewTranscriptionService(store TranscriptionStore, recorder metrics.Recorder, logger *slog.Logger) *TranscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TranscriptionService{store: store, metrics: recorder, logger: loggerOrDefault(logger)}
}

// Create stores a new transcription.
func (s *TranscriptionService) Create(ctx context.Context, content string) (model.Transcription, error) {
	t, err := s.store.Create(ctx, content)
	if err != nil {
		return model.Transcription{}, err
	}
	s.metrics.IncTranscriptionCreated("api")
	s.logger.Info("transcription created", "transcription_id", t.ID, "length", len(content))
	return t, nil
}

// Get returns one transcription.
func (s *TranscriptionService) Get(ctx context.Context, id string) (model.Transcription, error) {
	return s.store.Get(ctx, id)
}

// List returns a page of transcriptions, newest first.
func (s *TranscriptionService) List(ctx context.Context, limit int, nextToken string) (model.Page[model.Transcription], error) {
	return s.store.List(ctx, limit, nextToken)
}
