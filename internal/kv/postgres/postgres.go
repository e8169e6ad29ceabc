// Package postgres stores kv tables as rows of a single kv_items table.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // database/sql driver used by goose
	"github.com/pressly/goose/v3"

	"github.com/vocali/transcription-api/internal/kv"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store provides kv tables over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store with a connection pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Table returns the named table.
func (s *Store) Table(name string) kv.Table {
	return &Table{pool: s.pool, name: name}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Table is one logical table inside kv_items.
type Table struct {
	pool *pgxpool.Pool
	name string
}

func (t *Table) Put(ctx context.Context, item kv.Item) error {
	_, err := t.pool.Exec(ctx, `
		INSERT INTO kv_items (table_name, pk, sk, attrs)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name, pk, sk) DO UPDATE SET attrs = EXCLUDED.attrs`,
		t.name, item.Key.PK, item.Key.SK, attrsOf(item),
	)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func (t *Table) Insert(ctx context.Context, item kv.Item) error {
	tag, err := t.pool.Exec(ctx, `
		INSERT INTO kv_items (table_name, pk, sk, attrs)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name, pk, sk) DO NOTHING`,
		t.name, item.Key.PK, item.Key.SK, attrsOf(item),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return kv.ErrItemExists
	}
	return nil
}

func (t *Table) Get(ctx context.Context, key kv.Key) (kv.Item, error) {
	var attrs map[string]string
	err := t.pool.QueryRow(ctx, `
		SELECT attrs FROM kv_items
		WHERE table_name = $1 AND pk = $2 AND sk = $3`,
		t.name, key.PK, key.SK,
	).Scan(&attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kv.Item{}, kv.ErrItemNotFound
		}
		return kv.Item{}, fmt.Errorf("get item: %w", err)
	}
	return kv.Item{Key: key, Attrs: attrs}, nil
}

func (t *Table) Query(ctx context.Context, q kv.Query) (kv.Result, error) {
	query, args := buildQuery(t.name, q)

	rows, err := t.pool.Query(ctx, query, args...)
	if err != nil {
		return kv.Result{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []kv.Item
	for rows.Next() {
		var sk string
		var attrs map[string]string
		if err := rows.Scan(&sk, &attrs); err != nil {
			return kv.Result{}, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, kv.Item{Key: kv.Key{PK: q.PK, SK: sk}, Attrs: attrs})
	}
	if err := rows.Err(); err != nil {
		return kv.Result{}, fmt.Errorf("iterate items: %w", err)
	}

	return kv.Page(items, q.Limit), nil
}

// buildQuery returns the SQL and arguments for a partition scan.
func buildQuery(table string, q kv.Query) (string, []any) {
	var b strings.Builder
	args := []any{table, q.PK}

	b.WriteString("SELECT sk, attrs FROM kv_items WHERE table_name = $1 AND pk = $2")

	if q.StartAfter != nil {
		args = append(args, q.StartAfter.SK)
		op := ">"
		if q.Descending {
			op = "<"
		}
		b.WriteString(" AND sk " + op + " $" + strconv.Itoa(len(args)))
	}

	if q.Descending {
		b.WriteString(" ORDER BY sk DESC")
	} else {
		b.WriteString(" ORDER BY sk ASC")
	}

	if q.Limit > 0 {
		args = append(args, q.Limit+1)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}

	return b.String(), args
}

func attrsOf(item kv.Item) map[string]string {
	if item.Attrs == nil {
		return map[string]string{}
	}
	return item.Attrs
}
