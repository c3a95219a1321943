// Package resilience retries transient store failures and stops calling a
// store that keeps failing.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/snowcore/pdm-cli/internal/model"
)

// Error kinds reported by Classify.
const (
	KindValidation = "validation"
	KindConfig     = "config"
	KindTransient  = "transient"
	KindCanceled   = "canceled"
	KindPermanent  = "permanent"
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err so IsTransient reports true for it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is worth retrying: explicit
// TransientErrors, Postgres connection failures and retryable SQLSTATEs,
// SQLite busy/locked errors, and network timeouts or resets. Domain
// validation and configuration errors are never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if model.IsValidation(err) || model.IsConfig(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLState(pgErr.Code)
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"i/o timeout",
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"conn closed",
}

// transientSQLState reports whether a Postgres error code is retryable:
// connection exceptions (08), serialization failures and deadlocks (40),
// and "cannot connect now" during startup (57P03).
func transientSQLState(code string) bool {
	switch {
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "40"):
		return true
	case code == "57P03":
		return true
	}
	return false
}

// Classify names the kind of err for logs and cycle records.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case model.IsValidation(err):
		return KindValidation
	case model.IsConfig(err):
		return KindConfig
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case IsTransient(err):
		return KindTransient
	}
	return KindPermanent
}
