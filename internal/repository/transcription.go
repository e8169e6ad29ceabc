// Package repository maps domain entities onto kv tables.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vocali/transcription-api/internal/apperr"
	"github.com/vocali/transcription-api/internal/kv"
	"github.com/vocali/transcription-api/internal/model"
)

// Key layout for transcriptions. All records share one partition and are
// ordered by a ULID sort key, which sorts by creation time.
const (
	TranscriptionPartition = "TRANSCRIPTION"
	transcriptionSKPrefix  = "TRANSCRIPTION#"

	attrContent   = "content"
	attrCreatedAt = "createdAt"
)

// ErrTranscriptionNotFound is returned when no transcription has the id.
var ErrTranscriptionNotFound = apperr.New(apperr.NotFound, "Transcription not found")

// Option configures a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TranscriptionRepository stores transcriptions.
type TranscriptionRepository struct {
	table kv.Table
	now   func() time.Time
}

// NewTranscriptionRepository creates a TranscriptionRepository over table.
func NewTranscriptionRepository(table kv.Table, opts ...Option) *TranscriptionRepository {
	o := buildOptions(opts)
	return &TranscriptionRepository{table: table, now: o.now}
}

// Create stores content as a new transcription with a server-assigned id and timestamp.
func (r *TranscriptionRepository) Create(ctx context.Context, content string) (model.Transcription, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()

	t := model.Transcription{ID: id, Content: content, CreatedAt: now}
	item := kv.Item{
		Key: transcriptionKey(id),
		Attrs: map[string]string{
			attrContent:   content,
			attrCreatedAt: now.Format(model.TimestampLayout),
		},
	}

	if err := r.table.Insert(ctx, item); err != nil {
		return model.Transcription{}, fmt.Errorf("create transcription: %w", err)
	}
	return t, nil
}

// Get returns the transcription with id.
func (r *TranscriptionRepository) Get(ctx context.Context, id string) (model.Transcription, error) {
	item, err := r.table.Get(ctx, transcriptionKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrItemNotFound) {
			return model.Transcription{}, ErrTranscriptionNotFound
		}
		return model.Transcription{}, fmt.Errorf("get transcription: %w", err)
	}
	return toTranscription(item)
}

// List returns up to limit transcriptions, newest first, resuming after nextToken.
func (r *TranscriptionRepository) List(ctx context.Context, limit int, nextToken string) (model.Page[model.Transcription], error) {
	q := kv.Query{PK: TranscriptionPartition, Limit: limit, Descending: true}

	if nextToken != "" {
		start, err := decodeCursor(nextToken, TranscriptionPartition)
		if err != nil {
			return model.Page[model.Transcription]{}, err
		}
		q.StartAfter = &start
	}

	res, err := r.table.Query(ctx, q)
	if err != nil {
		return model.Page[model.Transcription]{}, fmt.Errorf("list transcriptions: %w", err)
	}

	page := model.Page[model.Transcription]{
		Items: make([]model.Transcription, 0, len(res.Items)),
	}
	for _, item := range res.Items {
		t, err := toTranscription(item)
		if err != nil {
			return model.Page[model.Transcription]{}, err
		}
		page.Items = append(page.Items, t)
	}

	if res.LastKey != nil {
		page.NextToken = encodeCursor(*res.LastKey)
		page.HasMore = true
	}
	return page, nil
}

func transcriptionKey(id string) kv.Key {
	return kv.Key{PK: TranscriptionPartition, SK: transcriptionSKPrefix + id}
}

func toTranscription(item kv.Item) (model.Transcription, error) {
	id := strings.TrimPrefix(item.Key.SK, transcriptionSKPrefix)

	var createdAt time.Time
	if raw := item.Attrs[attrCreatedAt]; raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return model.Transcription{}, fmt.Errorf("parse createdAt of %s: %w", id, err)
		}
		createdAt = parsed
	}

	return model.Transcription{
		ID:        id,
		Content:   item.Attrs[attrContent],
		CreatedAt: createdAt,
	}, nil
}
