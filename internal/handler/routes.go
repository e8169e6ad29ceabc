package handler

import (
	"time"

	"github.com/vocali/transcription-api/internal/service"
)

// Services are the domain operations the routes delegate to.
type Services struct {
	Auth           *service.AuthService
	Transcriptions *service.TranscriptionService
	Speech         *service.SpeechService

	Environment string
	Now         func() time.Time
}

// DefaultRoutes returns the API surface.
func DefaultRoutes(s Services) []Route {
	return []Route{
		{Path: "/transcriptions", Handler: NewCreateTranscription(s.Transcriptions)},
		{Path: "/transcriptions", Handler: NewListTranscriptions(s.Transcriptions)},
		{Path: "/transcriptions/{transcriptionId}", Handler: NewDownloadTranscription(s.Transcriptions, s.Now)},
		{Path: "/auth/register", Handler: NewRegister(s.Auth)},
		{Path: "/auth/login", Handler: NewLogin(s.Auth)},
		{Path: "/speech/token", Handler: NewSpeechToken(s.Speech)},
		{Path: "/speech/transcribe", Handler: NewTranscribeFile(s.Speech)},
		{Path: "/test", Handler: NewStatus(s.Environment, s.Now)},
	}
}
