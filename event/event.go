package event

import "time"

// Operation is the closed set of change kinds carried by the stream.
// Decoding rejects anything outside this set, so downstream switches
// over Operation can be exhaustive.
type Operation uint8

const (
	OpCreate Operation = iota + 1
	OpRead
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Row is the source-side projection of one orders row.
type Row struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Name    string `json:"name"`
}

// ChangeEvent is one decoded source-row mutation. At least one of
// Before/After is always populated; the decoder drops envelopes that
// carry neither.
type ChangeEvent struct {
	Op Operation

	// Before contains the row state prior to the operation
	// (update and delete events).
	Before *Row

	// After contains the row state after the operation
	// (create, read-snapshot and update events).
	After *Row

	// Timestamp is the source-side event time. Advisory only; it is
	// never used for conflict resolution.
	Timestamp time.Time
}

// Key returns the entity key, preferring the new-state key and falling
// back to the prior-state key. This coalescing is what lets update and
// delete events survive partial payloads.
func (e *ChangeEvent) Key() int64 {
	if e.After != nil {
		return e.After.OrderID
	}
	if e.Before != nil {
		return e.Before.OrderID
	}
	return 0
}
