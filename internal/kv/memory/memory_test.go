package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocali/transcription-api/internal/kv"
)

func seed(t *testing.T, table kv.Table, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := table.Put(context.Background(), kv.Item{
			Key:   kv.Key{PK: "P", SK: fmt.Sprintf("S#%02d", i)},
			Attrs: map[string]string{"n": fmt.Sprint(i)},
		})
		require.NoError(t, err)
	}
}

func sortKeys(items []kv.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key.SK)
	}
	return out
}

func TestQuery_DescendingPages(t *testing.T) {
	ctx := context.Background()
	table := New().Table("t")
	seed(t, table, 5)

	first, err := table.Query(ctx, kv.Query{PK: "P", Limit: 2, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"S#04", "S#03"}, sortKeys(first.Items))
	require.NotNil(t, first.LastKey)
	assert.Equal(t, "S#03", first.LastKey.SK)

	second, err := table.Query(ctx, kv.Query{PK: "P", Limit: 2, Descending: true, StartAfter: first.LastKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"S#02", "S#01"}, sortKeys(second.Items))
	require.NotNil(t, second.LastKey)

	third, err := table.Query(ctx, kv.Query{PK: "P", Limit: 2, Descending: true, StartAfter: second.LastKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"S#00"}, sortKeys(third.Items))
	assert.Nil(t, third.LastKey)
}

func TestQuery_ExactPageHasNoLastKey(t *testing.T) {
	table := New().Table("t")
	seed(t, table, 2)

	res, err := table.Query(context.Background(), kv.Query{PK: "P", Limit: 2, Descending: true})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Nil(t, res.LastKey)
}

func TestQuery_Ascending(t *testing.T) {
	table := New().Table("t")
	seed(t, table, 3)

	res, err := table.Query(context.Background(), kv.Query{PK: "P", Limit: 10, StartAfter: &kv.Key{PK: "P", SK: "S#00"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"S#01", "S#02"}, sortKeys(res.Items))
}

func TestQuery_UnknownPartition(t *testing.T) {
	res, err := New().Table("t").Query(context.Background(), kv.Query{PK: "missing", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Nil(t, res.LastKey)
}

func TestGetAndInsert(t *testing.T) {
	ctx := context.Background()
	table := New().Table("t")
	key := kv.Key{PK: "USER#a@b.com", SK: "USER#1"}

	_, err := table.Get(ctx, key)
	assert.ErrorIs(t, err, kv.ErrItemNotFound)

	require.NoError(t, table.Insert(ctx, kv.Item{Key: key, Attrs: map[string]string{"email": "a@b.com"}}))
	assert.ErrorIs(t, table.Insert(ctx, kv.Item{Key: key}), kv.ErrItemExists)

	got, err := table.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Attrs["email"])

	got.Attrs["email"] = "mutated"
	again, err := table.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", again.Attrs["email"])
}

func TestTablesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Table("a").Put(ctx, kv.Item{Key: kv.Key{PK: "P", SK: "1"}}))

	_, err := s.Table("b").Get(ctx, kv.Key{PK: "P", SK: "1"})
	assert.ErrorIs(t, err, kv.ErrItemNotFound)
	assert.NoError(t, s.Ping(ctx))
}
