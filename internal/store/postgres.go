package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

const (
	querySchema = `
		CREATE TABLE IF NOT EXISTS pgretry_counter (
			name    text PRIMARY KEY,
			value   bigint NOT NULL,
			version bigint NOT NULL
		)`
	queryGet    = "SELECT value, version FROM pgretry_counter WHERE name = $1"
	queryUpsert = `
		INSERT INTO pgretry_counter (name, value, version) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, version = EXCLUDED.version`
)

// Postgres stores counters in PostgreSQL. Increment runs a SERIALIZABLE
// read-modify-write transaction; serialization failures and deadlocks are
// reported as *pgretry.ConflictError wrapping the *pgconn.PgError.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the counter table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, querySchema); err != nil {
		return fmt.Errorf("failed to create counter table: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Get(ctx context.Context, name string) (Counter, error) {
	c := Counter{Name: name}
	err := p.pool.QueryRow(ctx, queryGet, name).Scan(&c.Value, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Counter{}, ErrNotFound
	}
	if err != nil {
		return Counter{}, fmt.Errorf("failed to read counter %q: %w", name, err)
	}
	return c, nil
}

func (p *Postgres) Increment(ctx context.Context, name string) (Counter, error) {
	var next Counter
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		current := Counter{Name: name}
		err := tx.QueryRow(ctx, queryGet, name).Scan(&current.Value, &current.Version)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		next = Counter{Name: name, Value: current.Value + 1, Version: current.Version + 1}
		_, err = tx.Exec(ctx, queryUpsert, next.Name, next.Value, next.Version)
		return err
	})
	if err != nil {
		return Counter{}, translate(name, err)
	}
	return next, nil
}

func translate(name string, err error) error {
	if retry.IsPgCode(err, retry.SQLStateSerializationFailure, retry.SQLStateDeadlockDetected) {
		return &pgretry.ConflictError{Resource: "counter/" + name, Err: err}
	}
	return fmt.Errorf("failed to increment counter %q: %w", name, err)
}

var _ Store = (*Postgres)(nil)
