package dto

import (
	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/validation"
)

// Speech defaults.
const (
	DefaultTokenTTL = 3600
	DefaultLanguage = "es"
	DefaultFormat   = "json-v2"
)

// SpeechTokenRequest is the body of POST /speech/token.
// TTL is nil only when the client omitted it.
type SpeechTokenRequest struct {
	TTL *int `json:"ttl,omitempty"`
}

// ApplyDefaults fills an omitted token lifetime.
func (r *SpeechTokenRequest) ApplyDefaults() {
	if r.TTL == nil {
		ttl := DefaultTokenTTL
		r.TTL = &ttl
	}
}

// Seconds returns the requested lifetime.
func (r *SpeechTokenRequest) Seconds() int {
	if r.TTL == nil {
		return DefaultTokenTTL
	}
	return *r.TTL
}

// Validate rejects zero and negative lifetimes.
func (r *SpeechTokenRequest) Validate() error {
	return validation.Result(validation.Field("ttl", r.Seconds(),
		validation.Rule{Tag: "min=1", Message: "TTL must be a positive number of seconds"},
	))
}

// SpeechTokenResponse is the body of a successful token request.
type SpeechTokenResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	TTL       int    `json:"ttl"`
}

// TranscribeFileRequest is the body of POST /speech/transcribe.
type TranscribeFileRequest struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	Language string `json:"language,omitempty"`
	Format   string `json:"format,omitempty"`
}

// ApplyDefaults fills language and output format.
func (r *TranscribeFileRequest) ApplyDefaults() {
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Format == "" {
		r.Format = DefaultFormat
	}
}

// Validate checks the payload and file name.
func (r *TranscribeFileRequest) Validate() error {
	var v []apperr.Violation
	fileData := validation.Field("fileData", r.FileData,
		validation.Rule{Tag: "min=1", Message: "File data is required"},
	)
	if len(fileData) == 0 {
		fileData = validation.Field("fileData", r.FileData,
			validation.Rule{Tag: "base64", Message: "File data must be base64 encoded"},
		)
	}
	v = append(v, fileData...)
	v = append(v, validation.Field("fileName", r.FileName,
		validation.Rule{Tag: "min=1", Message: "File name is required"},
	)...)
	v = append(v, validation.Field("format", r.Format,
		validation.Rule{Tag: "oneof=json-v2 txt srt", Message: "Format must be one of json-v2, txt, srt"},
	)...)
	return validation.Result(v)
}

// TranscribeFileResponse is the data of a successful transcription.
type TranscribeFileResponse struct {
	Transcription TranscriptionResponse `json:"transcription"`
}
