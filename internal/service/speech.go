package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/metrics"
	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/speech"
)

// Transcripts that cannot be stored as a transcription.
var (
	ErrEmptyTranscript   = apperr.Upstreamf(http.StatusBadGateway, "Transcription returned no text", "")
	ErrTranscriptTooLong = apperr.Upstreamf(http.StatusBadGateway, "Transcription is too long to store", "")
)

// TranscribeInput describes an uploaded audio file.
type TranscribeInput struct {
	FileData string // base64
	FileName string
	Language string
	Format   string
}

// SpeechService bridges the speech provider and transcription storage.
type SpeechService struct {
	provider SpeechProvider
	store    TranscriptionStore
	archive  Archiver
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewSpeechService creates a new SpeechService. archive may be nil.
func NewSpeechService(provider SpeechProvider, store TranscriptionStore, archive Archiver, recorder metrics.Recorder, logger *slog.Logger) *SpeechService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SpeechService{
		provider: provider,
		store:    store,
		archive:  archive,
		metrics:  recorder,
		logger:   loggerOrDefault(logger),
	}
}

// Ready reports whether the provider is configured.
func (s *SpeechService) Ready() error {
	return s.provider.Ready()
}

// Token issues a temporary real-time key valid for ttl seconds.
func (s *SpeechService) Token(ctx context.Context, ttl int) (speech.RealtimeToken, error) {
	return s.provider.RealtimeToken(ctx, ttl)
}

// Transcribe runs a batch transcription of the uploaded file and stores the text.
func (s *SpeechService) Transcribe(ctx context.Context, in TranscribeInput) (model.Transcription, error) {
	if err := s.provider.Ready(); err != nil {
		return model.Transcription{}, err
	}

	data, err := base64.StdEncoding.DecodeString(in.FileData)
	if err != nil {
		return model.Transcription{}, apperr.Invalid(apperr.Violation{
			Message: "File data must be base64 encoded",
			Path:    []string{"fileData"},
		})
	}

	if s.archive != nil {
		name := path.Join("audio", ulid.Make().String(), path.Base(in.FileName))
		if err := s.archive.Put(ctx, name, data); err != nil {
			return model.Transcription{}, fmt.Errorf("archive upload: %w", err)
		}
		s.logger.Debug("audio archived", "object", name, "bytes", len(data))
	}

	s.logger.Info("sending file for transcription", "file", in.FileName, "language", in.Language, "format", in.Format)
	text, err := s.provider.Transcribe(ctx, speech.File{Name: in.FileName, Data: data}, speech.TranscribeOptions{
		Language: in.Language,
		Format:   in.Format,
	})
	if err != nil {
		s.metrics.IncSpeechJob("failed")
		return model.Transcription{}, fmt.Errorf("transcribe %s: %w", in.FileName, err)
	}
	s.metrics.IncSpeechJob("done")

	switch {
	case strings.TrimSpace(text) == "":
		return model.Transcription{}, ErrEmptyTranscript
	case utf8.RuneCountInString(text) > model.MaxContentLength:
		return model.Transcription{}, ErrTranscriptTooLong
	}

	t, err := s.store.Create(ctx, text)
	if err != nil {
		return model.Transcription{}, err
	}
	s.metrics.IncTranscriptionCreated("speech")
	s.logger.Info("transcription finished", "transcription_id", t.ID)
	return t, nil
}
