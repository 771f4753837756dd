package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgretry/internal/retry"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds concurrent transactions; conflicting requests
	// queue on the pool instead of piling up serialization failures.
	DefaultMaxConns = 10

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	DefaultMaxConnIdleTime = 30 * time.Minute

	connectAttempts = 3
)

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

// Connect opens a pool for connString and verifies it with a ping. Transient
// connection failures are retried with exponential backoff.
func Connect(ctx context.Context, connString string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		// the connection string may carry a password, so it is not echoed
		return nil, &pgretry.ConfigurationError{Option: "connection", Err: err}
	}
	configurePool(poolConfig)

	classifier := retry.NewPostgreSQLErrorClassifier()
	backoff := retry.NewExponentialBackoff(
		retry.WithInitialDelay(100*time.Millisecond),
		retry.WithMaxDelay(2*time.Second),
	)
	cc := poolConfig.ConnConfig

	var pool *pgxpool.Pool
	err = retry.Do(ctx, connectAttempts, classifier.IsTransient, backoff, func(ctx context.Context) error {
		var err error
		pool, err = open(ctx, poolConfig)
		return err
	})
	if err != nil {
		return nil, wrapConnectionError(err, cc.Host, int(cc.Port), cc.Database)
	}
	return NewPostgres(pool), nil
}

func open(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// wrapConnectionError marks err as a connection failure and adds guidance for
// the common causes.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port

Original error: %w`, pgretry.ErrConnectionFailed, addr, host, port, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username

Original error: %w`, pgretry.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`%w: database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, pgretry.ErrConnectionFailed, database, database, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections to database "%s"

Lower the number of pgretry instances or raise max_connections.

Original error: %w`, pgretry.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("%w: %w", pgretry.ErrConnectionFailed, err)
	}
}
