// Package kv defines the partition/sort key table contract the repositories
// are written against. Backends live in subpackages.
package kv

import (
	"context"
	"errors"
	"io"
)

// Attribute names for the composite key.
const (
	AttrPK = "PK"
	AttrSK = "SK"
)

var (
	// ErrItemNotFound is returned by Get when no item has the key.
	ErrItemNotFound = errors.New("kv: item not found")
	// ErrItemExists is returned by Insert when an item already has the key.
	ErrItemExists = errors.New("kv: item already exists")
)

// Key identifies an item. It is also the resume position of a Query.
type Key struct {
	PK string `json:"PK"`
	SK string `json:"SK"`
}

// Item is a stored record. Attrs never contains the key attributes.
type Item struct {
	Key   Key
	Attrs map[string]string
}

// Query selects items from one partition in sort key order.
type Query struct {
	PK         string
	Limit      int
	Descending bool
	// StartAfter resumes strictly after this key when set.
	StartAfter *Key
}

// Result is one page of a Query. LastKey is set only when more items follow.
type Result struct {
	Items   []Item
	LastKey *Key
}

// Table is a single named collection.
type Table interface {
	// Put creates or replaces an item.
	Put(ctx context.Context, item Item) error
	// Insert creates an item, failing with ErrItemExists if the key is taken.
	Insert(ctx context.Context, item Item) error
	// Get returns the item with key or ErrItemNotFound.
	Get(ctx context.Context, key Key) (Item, error)
	// Query returns up to q.Limit items of partition q.PK.
	Query(ctx context.Context, q Query) (Result, error)
}

// Store opens tables on one backend.
type Store interface {
	Table(name string) Table
	Ping(ctx context.Context) error
	io.Closer
}

// Page trims a result fetched with limit+1 items to limit and sets LastKey
// when the extra item was present. Backends use it to report exact hasMore.
func Page(items []Item, limit int) Result {
	if limit <= 0 || len(items) <= limit {
		return Result{Items: items}
	}
	items = items[:limit]
	last := items[limit-1].Key
	return Result{Items: items, LastKey: &last}
}

// Clone returns a copy of attrs.
func Clone(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
