package dto

import (
	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/model"
	"github.com/vocali/transcription-api/internal/validation"
)

// PasswordSpecialChars lists the accepted special characters for passwords.
const PasswordSpecialChars = "@$!%*?&"

var passwordRules = []validation.Rule{
	{Tag: "min=8", Message: "Password must be at least 8 characters long"},
	{Tag: "containsany=abcdefghijklmnopqrstuvwxyz", Message: "Password must contain at least one lowercase letter"},
	{Tag: "containsany=ABCDEFGHIJKLMNOPQRSTUVWXYZ", Message: "Password must contain at least one uppercase letter"},
	{Tag: "containsany=0123456789", Message: "Password must contain at least one number"},
	{Tag: "containsany=" + PasswordSpecialChars, Message: "Password must contain at least one special character (" + PasswordSpecialChars + ")"},
}

var emailRule = validation.Rule{Tag: "email", Message: "Invalid email address"}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks every field and the password confirmation.
func (r *RegisterRequest) Validate() error {
	var v []apperr.Violation
	v = append(v, validation.Field("email", r.Email, emailRule)...)
	v = append(v, validation.Field("password", r.Password, passwordRules...)...)
	v = append(v, validation.Field("confirmPassword", r.ConfirmPassword,
		validation.Rule{Tag: "required", Message: "Confirm password is required"},
	)...)
	if r.Password != r.ConfirmPassword {
		v = append(v, validation.Form("Passwords do not match"))
	}
	return validation.Result(v)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks email syntax and that a password was given.
func (r *LoginRequest) Validate() error {
	var v []apperr.Violation
	v = append(v, validation.Field("email", r.Email, emailRule)...)
	v = append(v, validation.Field("password", r.Password,
		validation.Rule{Tag: "min=1", Message: "Password is required"},
	)...)
	return validation.Result(v)
}

// UserResponse is a user in API responses.
type UserResponse struct {
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	UserData     *UserResponse `json:"userData"`
}

// ToUserResponse converts a model.User. A nil user stays nil.
func ToUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{Email: u.Email, Sub: u.Sub}
}
