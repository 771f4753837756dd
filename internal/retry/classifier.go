package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgretry/pkg/pgretry"
)

// PostgreSQL error codes raised by optimistic concurrency and lock contention.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	SQLStateTransactionRollback  = "40"
	SQLStateSerializationFailure = "40001"
	SQLStateDeadlockDetected     = "40P01"
	SQLStateLockNotAvailable     = "55P03"
)

// PgCodeKind returns a kind matching *pgconn.PgError values by SQLSTATE.
// A two-character code matches every error in that class.
func PgCodeKind(name string, codes ...string) pgretry.ErrorKind {
	return pgretry.FuncKind(name, func(err error) bool {
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			return false
		}
		return codeMatches(pgErr.Code, codes)
	})
}

// IsPgCode reports whether err carries one of the given SQLSTATE codes or classes.
func IsPgCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && codeMatches(pgErr.Code, codes)
}

func codeMatches(code string, codes []string) bool {
	for _, c := range codes {
		if len(c) == 2 && strings.HasPrefix(code, c) {
			return true
		}
		if code == c {
			return true
		}
	}
	return false
}

// TransientConnectionKind returns a kind matching the connection-level failures
// recognized by PostgreSQLErrorClassifier.
func TransientConnectionKind(name string) pgretry.ErrorKind {
	return pgretry.FuncKind(name, NewPostgreSQLErrorClassifier().IsTransient)
}

// PostgreSQLErrorClassifier recognizes connection-level PostgreSQL failures:
// lost or refused connections, resource exhaustion and operator shutdowns.
type PostgreSQLErrorClassifier struct{}

// NewPostgreSQLErrorClassifier creates a new PostgreSQL error classifier.
func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

// IsTransient determines if an error is a temporary connection failure.
func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 connection exception, 53 insufficient resources, 57 operator intervention
		return codeMatches(pgErr.Code, []string{"08", "53", "57"})
	}

	return c.isNetworkError(err) || c.isConnectionError(err)
}

func (c *PostgreSQLErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if opErr.Err != nil {
			for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH} {
				if errors.Is(opErr.Err, errno) {
					return true
				}
			}
		}
	}

	return false
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

// isConnectionError matches messages of errors that lost their type on the way up.
func (c *PostgreSQLErrorClassifier) isConnectionError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
