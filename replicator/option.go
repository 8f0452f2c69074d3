package replicator

import "time"

// Option configures a Replicator.
type Option func(*Replicator)

// WithMaxRetries sets the destination write retry ceiling.
func WithMaxRetries(n int) Option {
	return func(r *Replicator) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the base backoff between write retries.
func WithRetryBackoff(d time.Duration) Option {
	return func(r *Replicator) {
		if d > 0 {
			r.retryBackoff = d
		}
	}
}

// WithMaxBackoff caps the exponential backoff.
func WithMaxBackoff(d time.Duration) Option {
	return func(r *Replicator) {
		if d > 0 {
			r.maxBackoff = d
		}
	}
}

// WithLogger sets the loop logger.
func WithLogger(logger Logger) Option {
	return func(r *Replicator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStatusReporter registers a receiver for state transitions.
func WithStatusReporter(reporter StatusReporter) Option {
	return func(r *Replicator) {
		r.statusReporter = reporter
	}
}
