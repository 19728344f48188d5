package kvpostgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xiuxian/internal/app/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS guard_locks (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  expires_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS guard_quotas (
  key TEXT PRIMARY KEY,
  remaining BIGINT NOT NULL CHECK (remaining >= 0)
);`

// Store keeps guard keys in Postgres for deployments without Redis.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", ports.ErrUnavailable, err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("creating guard tables: %w", err)
	}
	return nil
}

func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO guard_locks (key, value, expires_at)
VALUES ($1, $2, CASE WHEN $3::bigint > 0 THEN now() + $3::bigint * interval '1 millisecond' END)
ON CONFLICT (key) DO UPDATE
  SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
  WHERE guard_locks.expires_at IS NOT NULL AND guard_locks.expires_at <= now()`,
		key, value, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("%w: setnx %s: %v", ports.ErrUnavailable, key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM guard_locks WHERE key = $1 AND value = $2`, key, value)
	if err != nil {
		return false, fmt.Errorf("%w: compare-and-delete %s: %v", ports.ErrUnavailable, key, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DecrementWithFloor(ctx context.Context, key string, initial, delta int64) (int64, bool, error) {
	var remaining int64
	var applied bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO guard_quotas (key, remaining) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, initial); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`UPDATE guard_quotas SET remaining = remaining - $2 WHERE key = $1 AND remaining >= $2 RETURNING remaining`,
			key, delta).Scan(&remaining)
		if err == nil {
			applied = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		return tx.QueryRow(ctx, `SELECT remaining FROM guard_quotas WHERE key = $1`, key).Scan(&remaining)
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: decrement %s: %v", ports.ErrUnavailable, key, err)
	}
	return remaining, applied, nil
}

func (s *Store) IncrementWithCeiling(ctx context.Context, key string, delta, ceiling int64) (int64, error) {
	var remaining int64
	err := s.pool.QueryRow(ctx,
		`UPDATE guard_quotas SET remaining = LEAST(remaining + $2, $3) WHERE key = $1 RETURNING remaining`,
		key, delta, ceiling).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return ceiling, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: increment %s: %v", ports.ErrUnavailable, key, err)
	}
	return remaining, nil
}
