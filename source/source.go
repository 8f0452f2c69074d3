package source

import (
	"context"
	"time"
)

// Message is one transport message addressed by topic/partition/offset.
// A nil Value is a tombstone.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
}

// Source is a partitioned, ordered, at-least-once message stream with
// explicit manual offset commits. Commit must only ever be called for
// a message whose local application has succeeded.
type Source interface {
	// Fetch blocks until the next message is available or ctx is done.
	Fetch(ctx context.Context) (*Message, error)

	// Commit durably marks msg as applied for its partition.
	Commit(ctx context.Context, msg *Message) error

	Close() error
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
