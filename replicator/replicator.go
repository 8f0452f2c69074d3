package replicator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/web3tea/changesink/applier"
	"github.com/web3tea/changesink/event"
	"github.com/web3tea/changesink/metrics"
	"github.com/web3tea/changesink/sink"
	"github.com/web3tea/changesink/source"
)

// Status is the consumption loop state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusReady      Status = "ready"
	StatusConsuming  Status = "consuming"
	StatusApplying   Status = "applying"
	StatusDraining   Status = "draining"
	StatusStopped    Status = "stopped"
	StatusError      Status = "error"
)

// StatusReporter receives state transitions.
type StatusReporter interface {
	ReportStatus(status Status, message string)
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...any) {}
func (l *noopLogger) Infof(format string, args ...any)  {}
func (l *noopLogger) Warnf(format string, args ...any)  {}
func (l *noopLogger) Errorf(format string, args ...any) {}

// Replicator drives one partition-ordered stream through
// decode -> plan -> apply -> commit, strictly one message at a time.
// Offsets commit only after the mutation succeeded or the message was
// a recognized skip; a fatal destination failure stops the loop with
// the failing message left uncommitted.
type Replicator struct {
	Source  source.Source
	Applier *applier.Applier
	Sink    sink.Sink

	maxRetries   int
	retryBackoff time.Duration
	maxBackoff   time.Duration

	id     string
	logger Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	statusReporter StatusReporter
	status         Status
	statusMu       sync.RWMutex

	done    chan struct{}
	runErr  error
	errOnce sync.Once
}

func New(src source.Source, app *applier.Applier, snk sink.Sink, options ...Option) *Replicator {
	r := &Replicator{
		Source:       src,
		Applier:      app,
		Sink:         snk,
		maxRetries:   5,
		retryBackoff: 500 * time.Millisecond,
		maxBackoff:   30 * time.Second,
		id:           uuid.NewString(),
		logger:       &noopLogger{},
		status:       StatusIdle,
		done:         make(chan struct{}),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Start launches the consumption loop. It returns once the loop is
// running; fatal errors surface through Done and Err.
func (r *Replicator) Start(ctx context.Context) error {
	if r.Status() != StatusIdle {
		return fmt.Errorf("replicator already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.setStatus(StatusConnecting)

	r.logger.Infof("replicator %s starting, sink type %s", r.id, r.Sink.Type())

	r.wg.Add(1)
	go r.run()

	return nil
}

// Stop requests a drain, waits for the in-flight message to finish,
// and closes source and sink.
func (r *Replicator) Stop() error {
	if r.cancel == nil {
		return fmt.Errorf("replicator not started")
	}
	r.cancel()
	r.wg.Wait()

	var errs []error
	if err := r.Source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	if err := r.Sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sink: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.logger.Infof("replicator %s stopped", r.id)
	return nil
}

// Done is closed when the loop exits, cleanly or not.
func (r *Replicator) Done() <-chan struct{} {
	return r.done
}

// Err returns the fatal error the loop exited with, if any.
func (r *Replicator) Err() error {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.runErr
}

func (r *Replicator) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *Replicator) run() {
	defer r.wg.Done()
	defer close(r.done)

	r.setStatus(StatusReady)

	for {
		// cancellation is cooperative: checked only between messages,
		// never mid-mutation
		if r.ctx.Err() != nil {
			r.setStatus(StatusDraining)
			r.setStatus(StatusStopped)
			return
		}

		r.setStatus(StatusConsuming)
		msg, err := r.Source.Fetch(r.ctx)
		if err != nil {
			if r.ctx.Err() != nil || errors.Is(err, context.Canceled) {
				r.setStatus(StatusDraining)
				r.setStatus(StatusStopped)
				return
			}
			if errors.Is(err, io.EOF) {
				// reader closed underneath us
				r.fail(fmt.Errorf("transport closed: %w", err))
				return
			}
			r.logger.Errorf("failed to fetch message: %v", err)
			select {
			case <-r.ctx.Done():
				r.setStatus(StatusDraining)
				r.setStatus(StatusStopped)
				return
			case <-time.After(time.Second):
			}
			continue
		}
		metrics.MessagesFetched.Inc()

		r.setStatus(StatusApplying)

		// once a message is in flight its application runs to
		// completion even if a stop was requested
		applyCtx := context.WithoutCancel(r.ctx)

		if err := r.applyMessage(applyCtx, msg); err != nil {
			r.logger.Errorf("fatal error applying %s/%d@%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
			r.fail(err)
			return
		}

		if err := r.Source.Commit(applyCtx, msg); err != nil {
			// the message is applied; a missed commit only means an
			// idempotent re-apply after redelivery
			r.logger.Warnf("failed to commit offset %d: %v", msg.Offset, err)
			continue
		}
		metrics.OffsetCommits.Inc()
	}
}

// applyMessage runs decode -> plan -> apply for one message. A nil
// return means the offset may be committed: either the mutation is
// durably applied or the message was skipped for a per-message reason.
func (r *Replicator) applyMessage(ctx context.Context, msg *source.Message) error {
	start := time.Now()
	defer func() {
		metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}()

	ev, err := event.Decode(msg.Value)
	if err != nil {
		var de *event.DecodeError
		if errors.As(err, &de) {
			r.logger.Warnf("skipping undecodable message %s/%d@%d key=%q: %v",
				msg.Topic, msg.Partition, msg.Offset, msg.Key, err)
			metrics.MessagesSkipped.WithLabelValues("decode").Inc()
			return nil
		}
		return &sink.FatalError{Err: err}
	}
	if ev == nil {
		r.logger.Debugf("tombstone at %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
		metrics.MessagesSkipped.WithLabelValues("tombstone").Inc()
		return nil
	}

	mut, err := r.Applier.Plan(ev)
	if err != nil {
		var pe *applier.ProjectionError
		if errors.As(err, &pe) {
			r.logger.Warnf("skipping %s event for key %d at %s/%d@%d: %v",
				ev.Op, ev.Key(), msg.Topic, msg.Partition, msg.Offset, err)
			metrics.MessagesSkipped.WithLabelValues("projection").Inc()
			return nil
		}
		return &sink.FatalError{Err: err}
	}

	return r.applyWithRetry(ctx, mut)
}

// applyWithRetry executes one mutation with bounded exponential
// backoff. Exhausting the retry ceiling escalates to a fatal error;
// silently dropping a persistently failing write would corrupt
// convergence.
func (r *Replicator) applyWithRetry(ctx context.Context, mut *applier.Mutation) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := r.backoff(attempt)
			r.logger.Warnf("retrying %s for key %d in %s (attempt %d/%d): %v",
				mut.Kind, mut.OrderID, backoff, attempt, r.maxRetries, lastErr)
			metrics.ApplyRetries.Inc()
			time.Sleep(backoff)
		}

		err := r.Sink.Apply(ctx, mut)
		if err == nil {
			metrics.MutationsApplied.WithLabelValues(mut.Kind.String()).Inc()
			return nil
		}
		if !sink.IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return &sink.FatalError{
		Err: fmt.Errorf("retry ceiling of %d reached for %s on key %d: %w",
			r.maxRetries, mut.Kind, mut.OrderID, lastErr),
	}
}

func (r *Replicator) backoff(attempt int) time.Duration {
	d := r.retryBackoff << (attempt - 1)
	if d > r.maxBackoff || d <= 0 {
		d = r.maxBackoff
	}
	return d
}

func (r *Replicator) fail(err error) {
	r.errOnce.Do(func() {
		r.statusMu.Lock()
		r.runErr = err
		r.statusMu.Unlock()
	})
	r.setStatus(StatusError)
	r.setStatus(StatusStopped)
}

func (r *Replicator) setStatus(status Status) {
	r.statusMu.Lock()
	changed := r.status != status
	r.status = status
	reporter := r.statusReporter
	r.statusMu.Unlock()

	if changed && reporter != nil {
		reporter.ReportStatus(status, "")
	}
}
