// Package local implements identity.Provider on top of a kv table, for
// running the API without a Cognito user pool. Passwords are stored as
// Argon2id hashes and tokens are HS256 JWTs.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vocali/transcription-api/internal/identity"
	"github.com/vocali/transcription-api/internal/kv"
)

const (
	accountKeyPrefix = "ACCOUNT#"
	credentialSK     = "CREDENTIAL"

	attrSub       = "sub"
	attrHash      = "passwordHash"
	attrConfirmed = "confirmed"

	tokenUseID      = "id"
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"

	refreshTTL = 30 * 24 * time.Hour
)

// Claims are carried by every issued token.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
}

// Config configures the local provider.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
	Hash     HashParams
	Now      func() time.Time
}

// Provider stores accounts in a kv table.
type Provider struct {
	table kv.Table
	cfg   Config
}

// New creates a Provider. Zero values in cfg get defaults.
func New(table kv.Table, cfg Config) (*Provider, error) {
	if cfg.Secret == "" {
		return nil, errors.New("local identity: secret is required")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "transcription-api"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Hash == (HashParams{}) {
		cfg.Hash = DefaultHashParams
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{table: table, cfg: cfg}, nil
}

func accountKey(email string) kv.Key {
	return kv.Key{PK: accountKeyPrefix + email, SK: credentialSK}
}

// SignUp creates an unconfirmed account.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	hash, err := HashPassword(password, p.cfg.Hash)
	if err != nil {
		return "", fmt.Errorf("local sign up: %w", err)
	}

	sub := uuid.NewString()
	err = p.table.Insert(ctx, kv.Item{
		Key: accountKey(email),
		Attrs: map[string]string{
			attrSub:       sub,
			attrHash:      hash,
			attrConfirmed: "false",
		},
	})
	if err != nil {
		if errors.Is(err, kv.ErrItemExists) {
			return "", fmt.Errorf("local sign up: %w", identity.ErrUserExists)
		}
		return "", fmt.Errorf("local sign up: %w", err)
	}
	return sub, nil
}

// AdminConfirm marks the account confirmed.
func (p *Provider) AdminConfirm(ctx context.Context, username string) error {
	item, err := p.account(ctx, username)
	if err != nil {
		return fmt.Errorf("local admin confirm: %w", err)
	}
	item.Attrs[attrConfirmed] = "true"
	if err := p.table.Put(ctx, item); err != nil {
		return fmt.Errorf("local admin confirm: %w", err)
	}
	return nil
}

// InitiateAuth verifies the password of a confirmed account and issues tokens.
func (p *Provider) InitiateAuth(ctx context.Context, email, password string) (identity.Tokens, error) {
	item, err := p.account(ctx, email)
	if err != nil {
		return identity.Tokens{}, fmt.Errorf("local initiate auth: %w", err)
	}

	ok, err := VerifyPassword(password, item.Attrs[attrHash])
	if err != nil {
		return identity.Tokens{}, fmt.Errorf("local initiate auth: %w", err)
	}
	if !ok || item.Attrs[attrConfirmed] != "true" {
		return identity.Tokens{}, fmt.Errorf("local initiate auth: %w", identity.ErrInvalidCredentials)
	}

	sub := item.Attrs[attrSub]
	idToken, err := p.sign(sub, email, tokenUseID, p.cfg.TokenTTL)
	if err != nil {
		return identity.Tokens{}, err
	}
	accessToken, err := p.sign(sub, email, tokenUseAccess, p.cfg.TokenTTL)
	if err != nil {
		return identity.Tokens{}, err
	}
	refreshToken, err := p.sign(sub, email, tokenUseRefresh, refreshTTL)
	if err != nil {
		return identity.Tokens{}, err
	}

	return identity.Tokens{
		IDToken:      idToken,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int32(p.cfg.TokenTTL / time.Second),
	}, nil
}

// ParseToken validates a token issued by this provider.
func (p *Provider) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(p.cfg.Secret), nil
	}, jwt.WithIssuer(p.cfg.Issuer), jwt.WithTimeFunc(p.cfg.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}

func (p *Provider) account(ctx context.Context, email string) (kv.Item, error) {
	item, err := p.table.Get(ctx, accountKey(email))
	if err != nil {
		if errors.Is(err, kv.ErrItemNotFound) {
			return kv.Item{}, identity.ErrUserNotFound
		}
		return kv.Item{}, err
	}
	if item.Attrs == nil {
		item.Attrs = map[string]string{}
	}
	return item, nil
}

func (p *Provider) sign(sub, email, use string, ttl time.Duration) (string, error) {
	now := p.cfg.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    email,
		TokenUse: use,
	})

	signed, err := token.SignedString([]byte(p.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", use, err)
	}
	return signed, nil
}
