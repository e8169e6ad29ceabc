// Package identity defines the identity provider contract used for
// registration and login. Backends live in subpackages.
package identity

import (
	"context"

	"github.com/vocali/transcription-api/internal/apperr"
)

// Provider errors. Backends wrap these so callers can match with errors.Is.
var (
	ErrInvalidCredentials = apperr.New(apperr.Unauthorized, "Invalid credentials")
	ErrUserNotFound       = apperr.New(apperr.NotFound, "User not found")
	ErrUserExists         = apperr.New(apperr.Conflict, "User already exists")
	ErrInvalidPassword    = apperr.Invalid(apperr.Violation{
		Message: "Password does not satisfy the identity provider policy",
		Path:    []string{"password"},
	})
)

// Tokens are issued by a successful authentication.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
}

// Token returns the token handed to clients: the ID token when issued,
// otherwise the access token.
func (t Tokens) Token() string {
	if t.IDToken != "" {
		return t.IDToken
	}
	return t.AccessToken
}

// Provider manages accounts keyed by email.
type Provider interface {
	// SignUp creates an account and returns its subject identifier.
	SignUp(ctx context.Context, email, password string) (string, error)
	// AdminConfirm marks the account as confirmed without user interaction.
	AdminConfirm(ctx context.Context, username string) error
	// InitiateAuth checks the password and issues tokens.
	InitiateAuth(ctx context.Context, email, password string) (Tokens, error)
}
