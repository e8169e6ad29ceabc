package handler

import (
	"context"
	"net/http"

	"github.com/vocali/transcription-api/internal/handler/dto"
	"github.com/vocali/transcription-api/internal/response"
	"github.com/vocali/transcription-api/internal/service"
)

// Register handles POST /auth/register.
type Register struct {
	svc *service.AuthService
}

// NewRegister creates a new Register handler.
func NewRegister(svc *service.AuthService) *Register {
	return &Register{svc: svc}
}

func (h *Register) Name() string      { return "Register" }
func (h *Register) Methods() []string { return []string{http.MethodPost} }

func (h *Register) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	var body dto.RegisterRequest
	if err := ParseBody(req, &body); err != nil {
		return response.APIResponse{}, err
	}

	user, err := h.svc.Register(ctx, body.Email, body.Password)
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).Success(dto.ToUserResponse(&user), "Registration successful"), nil
}

// Login handles POST /auth/login.
type Login struct {
	svc *service.AuthService
}

// NewLogin creates a new Login handler.
func NewLogin(svc *service.AuthService) *Login {
	return &Login{svc: svc}
}

func (h *Login) Name() string      { return "Login" }
func (h *Login) Methods() []string { return []string{http.MethodPost} }

func (h *Login) ProcessEvent(ctx context.Context, req Request) (response.APIResponse, error) {
	var body dto.LoginRequest
	if err := ParseBody(req, &body); err != nil {
		return response.APIResponse{}, err
	}

	res, err := h.svc.Login(ctx, body.Email, body.Password)
	if err != nil {
		return response.APIResponse{}, err
	}
	return response.For(h.Methods()...).Success(dto.LoginResponse{
		Token:        res.Tokens.Token(),
		RefreshToken: res.Tokens.RefreshToken,
		UserData:     dto.ToUserResponse(res.User),
	}, "Login successful"), nil
}
