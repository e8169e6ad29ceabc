// Package redis stores kv tables in Redis. Each partition is a sorted set of
// sort keys scored 0, so members order lexicographically, and each item is a hash.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vocali/transcription-api/internal/kv"
)

// presenceField keeps the item hash non-empty when an item has no attributes.
const presenceField = "__kv"

// Store provides kv tables over a Redis client.
type Store struct {
	client *redis.Client
}

// New creates a Store and verifies connectivity.
func New(ctx context.Context, redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Table returns the named table.
func (s *Store) Table(name string) kv.Table {
	return &Table{client: s.client, name: name}
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Table is one logical table.
type Table struct {
	client *redis.Client
	name   string
}

func (t *Table) partitionKey(pk string) string {
	return t.name + ":part:" + pk
}

func (t *Table) itemKey(key kv.Key) string {
	return t.name + ":item:" + key.PK + ":" + key.SK
}

func (t *Table) Put(ctx context.Context, item kv.Item) error {
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		t.write(ctx, pipe, item)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (t *Table) Insert(ctx context.Context, item kv.Item) error {
	added, err := t.client.ZAddNX(ctx, t.partitionKey(item.Key.PK), redis.Z{Member: item.Key.SK}).Result()
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	if added == 0 {
		return kv.ErrItemExists
	}
	if err := t.Put(ctx, item); err != nil {
		return err
	}
	return nil
}

func (t *Table) write(ctx context.Context, pipe redis.Pipeliner, item kv.Item) {
	hashKey := t.itemKey(item.Key)
	fields := make(map[string]any, len(item.Attrs)+1)
	for k, v := range item.Attrs {
		fields[k] = v
	}
	fields[presenceField] = "1"

	pipe.ZAdd(ctx, t.partitionKey(item.Key.PK), redis.Z{Member: item.Key.SK})
	pipe.Del(ctx, hashKey)
	pipe.HSet(ctx, hashKey, fields)
}

func (t *Table) Get(ctx context.Context, key kv.Key) (kv.Item, error) {
	attrs, err := t.client.HGetAll(ctx, t.itemKey(key)).Result()
	if err != nil {
		return kv.Item{}, fmt.Errorf("get item: %w", err)
	}
	if len(attrs) == 0 {
		return kv.Item{}, kv.ErrItemNotFound
	}
	delete(attrs, presenceField)
	return kv.Item{Key: key, Attrs: attrs}, nil
}

func (t *Table) Query(ctx context.Context, q kv.Query) (kv.Result, error) {
	by := lexRange(q)

	var members []string
	var err error
	if q.Descending {
		members, err = t.client.ZRevRangeByLex(ctx, t.partitionKey(q.PK), by).Result()
	} else {
		members, err = t.client.ZRangeByLex(ctx, t.partitionKey(q.PK), by).Result()
	}
	if err != nil {
		return kv.Result{}, fmt.Errorf("query partition: %w", err)
	}
	if len(members) == 0 {
		return kv.Result{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = t.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, sk := range members {
			cmds[i] = pipe.HGetAll(ctx, t.itemKey(kv.Key{PK: q.PK, SK: sk}))
		}
		return nil
	})
	if err != nil {
		return kv.Result{}, fmt.Errorf("load items: %w", err)
	}

	items := make([]kv.Item, 0, len(members))
	for i, sk := range members {
		attrs := cmds[i].Val()
		delete(attrs, presenceField)
		items = append(items, kv.Item{Key: kv.Key{PK: q.PK, SK: sk}, Attrs: attrs})
	}

	return kv.Page(items, q.Limit), nil
}

// lexRange returns the ZRANGEBYLEX bounds for q, fetching one extra member.
func lexRange(q kv.Query) *redis.ZRangeBy {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}
	if q.StartAfter != nil {
		if q.Descending {
			by.Max = "(" + q.StartAfter.SK
		} else {
			by.Min = "(" + q.StartAfter.SK
		}
	}
	if q.Limit > 0 {
		by.Count = int64(q.Limit + 1)
	}
	return by
}
