package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/kv"
	"github.com/vocali/transcription-api/internal/model"
)

// Users are partitioned by email with a unique sort key per record.
const (
	userKeyPrefix = "USER#"

	attrEmail = "email"
	attrSub   = "sub"
)

// ErrUserNotFound is returned when no user record exists for an email.
var ErrUserNotFound = apperr.New(apperr.NotFound, "User not found")

// UserRepository stores user records.
type UserRepository struct {
	table kv.Table
	now   func() time.Time
}

// NewUserRepository creates a UserRepository over table.
func NewUserRepository(table kv.Table, opts ...Option) *UserRepository {
	o := buildOptions(opts)
	return &UserRepository{table: table, now: o.now}
}

// Create stores a user pairing email with the identity provider subject.
func (r *UserRepository) Create(ctx context.Context, email, sub string) (model.User, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	u := model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Sub:       sub,
		CreatedAt: now,
	}

	item := kv.Item{
		Key: kv.Key{PK: userKeyPrefix + email, SK: userKeyPrefix + u.ID},
		Attrs: map[string]string{
			attrEmail:     email,
			attrSub:       sub,
			attrCreatedAt: now.Format(model.TimestampLayout),
		},
	}
	if err := r.table.Put(ctx, item); err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByEmail returns the first user record stored for email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	res, err := r.table.Query(ctx, kv.Query{PK: userKeyPrefix + email, Limit: 1})
	if err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if len(res.Items) == 0 {
		return model.User{}, ErrUserNotFound
	}
	return toUser(res.Items[0])
}

func toUser(item kv.Item) (model.User, error) {
	u := model.User{
		ID:    strings.TrimPrefix(item.Key.SK, userKeyPrefix),
		Email: item.Attrs[attrEmail],
		Sub:   item.Attrs[attrSub],
	}
	if raw := item.Attrs[attrCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.User{}, fmt.Errorf("parse createdAt of user %s: %w", u.ID, err)
		}
		u.CreatedAt = createdAt
	}
	if u.Email == "" {
		return model.User{}, errors.New("user record has no email")
	}
	return u, nil
}
