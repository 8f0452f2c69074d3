package sink

import (
	"context"
	"sync"

	"github.com/web3tea/changesink/applier"
)

// MemorySink materializes mutations into an in-process map with the
// same upsert/update/delete semantics as the Postgres writer. Used for
// dry runs and tests.
type MemorySink struct {
	mu   sync.Mutex
	rows map[int64]int64 // order_id -> user_id
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		rows: make(map[int64]int64),
	}
}

// Apply implements Sink.
func (s *MemorySink) Apply(ctx context.Context, m *applier.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Kind {
	case applier.KindUpsert:
		s.rows[m.OrderID] = m.UserID
	case applier.KindUpdate:
		if _, ok := s.rows[m.OrderID]; ok {
			s.rows[m.OrderID] = m.UserID
		}
		// zero-row update is a soft no-op
	case applier.KindDelete:
		delete(s.rows, m.OrderID)
	}
	return nil
}

// Row returns the materialized user_id for a key.
func (s *MemorySink) Row(orderID int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.rows[orderID]
	return userID, ok
}

// Len returns the number of materialized rows.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Close implements Sink.
func (s *MemorySink) Close() error {
	return nil
}

// Type implements Sink.
func (s *MemorySink) Type() string {
	return "memory"
}

var _ Sink = (*MemorySink)(nil)
