// Package memory is an in-process kv backend for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vocali/transcription-api/internal/kv"
)

// Store keeps every table in memory.
type Store struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Table returns the named table, creating it on first use.
func (s *Store) Table(name string) kv.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		t = &Table{partitions: make(map[string][]kv.Item)}
		s.tables[name] = t
	}
	return t
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Table holds partitions sorted by sort key.
type Table struct {
	mu         sync.RWMutex
	partitions map[string][]kv.Item
}

func (t *Table) Put(ctx context.Context, item kv.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.upsert(item)
	return nil
}

func (t *Table) Insert(ctx context.Context, item kv.Item) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.find(item.Key); ok {
		return kv.ErrItemExists
	}
	t.upsert(item)
	return nil
}

func (t *Table) Get(ctx context.Context, key kv.Key) (kv.Item, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.find(key)
	if !ok {
		return kv.Item{}, kv.ErrItemNotFound
	}
	item := t.partitions[key.PK][i]
	return kv.Item{Key: item.Key, Attrs: kv.Clone(item.Attrs)}, nil
}

func (t *Table) Query(ctx context.Context, q kv.Query) (kv.Result, error) {
	if err := ctx.Err(); err != nil {
		return kv.Result{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	items := t.partitions[q.PK]
	n := len(items)
	out := make([]kv.Item, 0, min(n, max(q.Limit, 0)+1))

	for j := 0; j < n; j++ {
		idx := j
		if q.Descending {
			idx = n - 1 - j
		}
		item := items[idx]
		if q.StartAfter != nil {
			if q.Descending && item.Key.SK >= q.StartAfter.SK {
				continue
			}
			if !q.Descending && item.Key.SK <= q.StartAfter.SK {
				continue
			}
		}
		out = append(out, kv.Item{Key: item.Key, Attrs: kv.Clone(item.Attrs)})
		if q.Limit > 0 && len(out) > q.Limit {
			break
		}
	}

	return kv.Page(out, q.Limit), nil
}

func (t *Table) find(key kv.Key) (int, bool) {
	items := t.partitions[key.PK]
	i := sort.Search(len(items), func(i int) bool { return items[i].Key.SK >= key.SK })
	return i, i < len(items) && items[i].Key.SK == key.SK
}

func (t *Table) upsert(item kv.Item) {
	stored := kv.Item{Key: item.Key, Attrs: kv.Clone(item.Attrs)}
	i, ok := t.find(item.Key)
	items := t.partitions[item.Key.PK]
	if ok {
		items[i] = stored
		return
	}
	items = append(items, kv.Item{})
	copy(items[i+1:], items[i:])
	items[i] = stored
	t.partitions[item.Key.PK] = items
}
