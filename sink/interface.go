package sink

import (
	"context"

	"github.com/web3tea/changesink/applier"
)

// Sink executes mutation intents against a destination. Implementations
// own their connection for the duration of one Apply call; no two
// mutations share a transaction.
type Sink interface {
	// Apply executes one mutation. A nil return means the mutation is
	// durably applied or was a recognized no-op; the caller may commit
	// the message's offset. Failures come back wrapped as
	// *RetryableError or *FatalError.
	Apply(ctx context.Context, m *applier.Mutation) error

	Close() error

	Type() string
}
