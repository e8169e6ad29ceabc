package handler

import (
	"context"
	"net/http"

	"github.com/vocali/transcription-api/internal/handler/dto"
	"github.com/vocali/transcription-api/internal/response"
	"github.com/vocali/transcription-api/internal/service"
)

// SpeechToken handles POST /speech/token.
type SpeechToken struct {
	svc *service.SpeechService
}

// NewSpeechToken creates a new SpeechToken handler.
func NewSpeechToken(svc *service.SpeechService) *SpeechToken {
	return &SpeechToken{svc: svc}
}

func (h *SpeechToken) Name() string      { return "SpeechToken" }
func (h *SpeechToken) Methods() []string { return []string{http.MethodPost} }

func (h *SpeechToken) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	// Configuration is checked before the body so a missing key is always a 500.
	if err := h.svc.Ready(); err != nil {
		return response.APIResponse{}, err
	}

	var body dto.SpeechTokenRequest
	if err := ParseBody(req, &body); err != nil {
		return response.APIResponse{}, err
	}

	tok, err := h.svc.Token(ctx, body.Seconds())
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).JSON(http.StatusOK, dto.SpeechTokenResponse{
		Message:   "Token generated successfully",
		Token:     tok.Key,
		ExpiresAt: tok.ExpiresAt,
		TTL:       body.Seconds(),
	}), nil
}

// TranscribeFile handles POST /speech/transcribe.
type TranscribeFile struct {
	svc *service.SpeechService
}

// NewTranscribeFile creates a new TranscribeFile handler.
func NewTranscribeFile(svc *service.SpeechService) *TranscribeFile {
	return &TranscribeFile{svc: svc}
}

func (h *TranscribeFile) Name() string      { return "TranscribeFile" }
func (h *TranscribeFile) Methods() []string { return []string{http.MethodPost} }

func (h *TranscribeFile) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	var body dto.TranscribeFileRequest
	if err := ParseBody(req, &body); err != nil {
		return response.APIResponse{}, err
	}

	t, err := h.svc.Transcribe(ctx, service.TranscribeInput{
		FileData: body.FileData,
		FileName: body.FileName,
		Language: body.Language,
		Format:   body.Format,
	})
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).Success(dto.TranscribeFileResponse{
		Transcription: dto.ToTranscriptionResponse(t),
	}, "Transcription successful"), nil
}
