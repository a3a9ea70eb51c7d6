package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// PostgresKV is a PostgreSQL implementation of shortener.KV over the
// kv_entries table. Expiry is evaluated by the database clock on every read.
type PostgresKV struct {
	pool *pgxpool.Pool
}

// NewPostgresKV creates a new PostgreSQL-backed key-value store.
func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, _, err := p.GetWithTTL(ctx, key)

	return value, err
}

// GetWithTTL returns the value and how long it has left, measured by the
// database clock. Entries without expiry report zero.
func (p *PostgresKV) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error) {
	query := `
		SELECT value,
		       COALESCE(CEIL(EXTRACT(EPOCH FROM expires_at - now()) * 1000), 0)::bigint
		FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`

	var (
		value []byte
		ttlMS int64
	)

	if err := p.pool.QueryRow(ctx, query, key).Scan(&value, &ttlMS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, shortener.ErrNotFound
		}

		return nil, 0, err
	}

	return value, time.Duration(ttlMS) * time.Millisecond, nil
}

func (p *PostgresKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, ` + expiresAtExpr + `)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`

	_, err := p.pool.Exec(ctx, query, key, value, ttl.Milliseconds())

	return err
}

// PutIfAbsent inserts key, or takes over a row whose entry has expired.
func (p *PostgresKV) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, ` + expiresAtExpr + `)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		WHERE kv_entries.expires_at IS NOT NULL AND kv_entries.expires_at <= now()
	`

	tag, err := p.pool.Exec(ctx, query, key, value, ttl.Milliseconds())
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)

	return err
}

func (p *PostgresKV) List(ctx context.Context) ([]string, error) {
	query := `
		SELECT key
		FROM kv_entries
		WHERE expires_at IS NULL OR expires_at > now()
		ORDER BY key
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Ping checks database connectivity.
func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresKV) Shutdown() error {
	p.pool.Close()

	return nil
}

// expiresAtExpr turns the $3 millisecond ttl into an absolute expiry; a
// non-positive ttl stores NULL, meaning the entry never expires.
const expiresAtExpr = `CASE WHEN $3::bigint > 0 THEN now() + $3::bigint * interval '1 millisecond' END`

var (
	_ shortener.KV                = (*PostgresKV)(nil)
	_ shortener.ConditionalPutter = (*PostgresKV)(nil)
	_ TTLGetter                   = (*PostgresKV)(nil)
)
