// Package service implements the domain operations behind the handlers.
package service

import (
	"context"
	"log/slog"

	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/speech"
)

// TranscriptionStore persists transcriptions.
type TranscriptionStore interface {
	Create(ctx context.Context, content string) (model.Transcription, error)
	Get(ctx context.Context, id string) (model.Transcription, error)
	List(ctx context.Context, limit int, nextToken string) (model.Page[model.Transcription], error)
}

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, email, sub string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// SpeechProvider issues real-time keys and runs batch transcriptions.
type SpeechProvider interface {
	Ready() error
	RealtimeToken(ctx context.Context, ttl int) (speech.RealtimeToken, error)
	Transcribe(ctx context.Context, file speech.File, opts speech.TranscribeOptions) (string, error)
}

// Archiver keeps a copy of uploaded audio.
type Archiver interface {
	Put(ctx context.Context, name string, data []byte) error
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
