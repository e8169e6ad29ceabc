// Package cognito implements identity.Provider with an Amazon Cognito user pool.
package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/vocali/transcription-api/internal/identity"
)

// API is the subset of the Cognito client used by the provider.
type API interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

// Config identifies the user pool and app client.
type Config struct {
	UserPoolID string
	ClientID   string
	// ClientSecret is only needed for app clients created with a secret.
	ClientSecret string
}

// Provider talks to Cognito.
type Provider struct {
	client API
	cfg    Config
}

// NewFromConfig builds a Provider from an AWS config.
func NewFromConfig(awsCfg aws.Config, cfg Config) *Provider {
	return New(cip.NewFromConfig(awsCfg), cfg)
}

// New wraps an existing client.
func New(client API, cfg Config) *Provider {
	return &Provider{client: client, cfg: cfg}
}

// SignUp registers email with password and returns the user sub.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	out, err := p.client.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(p.cfg.ClientID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		SecretHash: p.secretHash(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("cognito sign up: %w", mapError(err))
	}
	return aws.ToString(out.UserSub), nil
}

// AdminConfirm confirms username in the user pool.
func (p *Provider) AdminConfirm(ctx context.Context, username string) error {
	_, err := p.client.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: aws.String(p.cfg.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return fmt.Errorf("cognito admin confirm: %w", mapError(err))
	}
	return nil
}

// InitiateAuth runs the USER_PASSWORD_AUTH flow.
func (p *Provider) InitiateAuth(ctx context.Context, email, password string) (identity.Tokens, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if hash := p.secretHash(email); hash != nil {
		params["SECRET_HASH"] = *hash
	}

	out, err := p.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(p.cfg.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return identity.Tokens{}, fmt.Errorf("cognito initiate auth: %w", mapError(err))
	}

	res := out.AuthenticationResult
	if res == nil {
		return identity.Tokens{}, fmt.Errorf("cognito initiate auth: unsupported challenge %q", out.ChallengeName)
	}

	return identity.Tokens{
		IDToken:      aws.ToString(res.IdToken),
		AccessToken:  aws.ToString(res.AccessToken),
		RefreshToken: aws.ToString(res.RefreshToken),
		ExpiresIn:    res.ExpiresIn,
	}, nil
}

// secretHash computes SECRET_HASH for app clients with a secret.
func (p *Provider) secretHash(username string) *string {
	if p.cfg.ClientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(p.cfg.ClientSecret))
	mac.Write([]byte(username + p.cfg.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// mapError attaches the identity sentinel matching a Cognito exception.
func mapError(err error) error {
	var (
		notAuthorized   *types.NotAuthorizedException
		userNotFound    *types.UserNotFoundException
		usernameExists  *types.UsernameExistsException
		invalidPassword *types.InvalidPasswordException
		notConfirmed    *types.UserNotConfirmedException
	)

	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &notConfirmed):
		return fmt.Errorf("%w: %w", identity.ErrInvalidCredentials, err)
	case errors.As(err, &userNotFound):
		return fmt.Errorf("%w: %w", identity.ErrUserNotFound, err)
	case errors.As(err, &usernameExists):
		return fmt.Errorf("%w: %w", identity.ErrUserExists, err)
	case errors.As(err, &invalidPassword):
		return fmt.Errorf("%w: %w", identity.ErrInvalidPassword, err)
	default:
		return err
	}
}
