package sink

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// RetryableError wraps a transient destination fault. The consumer may
// retry the same mutation with backoff.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return "retryable: " + e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError wraps a persistent destination fault or a programming
// contract violation. The consumer must stop the partition and surface
// it; the message's offset is never committed.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// retryable SQLSTATE classes: connection exceptions, insufficient
// resources, operator intervention, system errors.
var retryableClasses = map[string]bool{
	"08": true,
	"53": true,
	"57": true,
	"58": true,
}

// retryable single codes: serialization_failure, deadlock_detected.
var retryableCodes = map[string]bool{
	"40001": true,
	"40P01": true,
}

// classify sorts a destination error into retryable vs fatal.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return &RetryableError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RetryableError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &RetryableError{Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if retryableCodes[pgErr.Code] {
			return &RetryableError{Err: err}
		}
		if len(pgErr.Code) >= 2 && retryableClasses[pgErr.Code[:2]] {
			return &RetryableError{Err: err}
		}
		return &FatalError{Err: err}
	}

	return &FatalError{Err: err}
}
