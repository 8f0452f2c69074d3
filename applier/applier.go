package applier

import (
	"fmt"

	"github.com/web3tea/changesink/event"
)

// Kind is the set of destination mutations an event can map to.
type Kind uint8

const (
	KindUpsert Kind = iota + 1
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindUpsert:
		return "upsert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Mutation is one destination mutation intent. It carries only the
// fields the destination schema retains: the source row's name column
// is dropped here on purpose, not lost upstream.
type Mutation struct {
	Kind    Kind
	OrderID int64

	// UserID is meaningful for upsert and update only.
	UserID int64
}

// UpdateMode decides what an update event becomes at the destination.
type UpdateMode string

const (
	// UpdateModeUpsert maps update events to upserts, so an update
	// redelivered ahead of its create still materializes the row.
	UpdateModeUpsert UpdateMode = "upsert"

	// UpdateModeUpdate keeps updates as plain updates; an update for an
	// absent key is a logged zero-row soft failure.
	UpdateModeUpdate UpdateMode = "update"
)

func ParseUpdateMode(s string) (UpdateMode, error) {
	switch UpdateMode(s) {
	case UpdateModeUpsert, UpdateModeUpdate:
		return UpdateMode(s), nil
	case "":
		return UpdateModeUpsert, nil
	default:
		return "", fmt.Errorf("unknown update mode %q", s)
	}
}

// ProjectionError marks a decodable event that is missing the state
// projection its operation requires. Like a decode failure it is
// per-message: skip, log, advance the offset.
type ProjectionError struct {
	Op      event.Operation
	Missing string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("%s event missing required %s state", e.Op, e.Missing)
}

type Applier struct {
	updateMode UpdateMode
}

func New(mode UpdateMode) *Applier {
	if mode == "" {
		mode = UpdateModeUpsert
	}
	return &Applier{updateMode: mode}
}

// Plan maps one change event to its destination mutation.
//
// Create and read-snapshot events both mean "entity now exists with
// this state" and become upserts so redelivery stays idempotent.
// Update events become upserts as well under the default mode, which
// guards against an update arriving before the original create.
// Deletes go by key and tolerate an already-absent row.
func (a *Applier) Plan(ev *event.ChangeEvent) (*Mutation, error) {
	switch ev.Op {
	case event.OpCreate, event.OpRead:
		if ev.After == nil {
			return nil, &ProjectionError{Op: ev.Op, Missing: "after"}
		}
		return &Mutation{Kind: KindUpsert, OrderID: ev.After.OrderID, UserID: ev.After.UserID}, nil

	case event.OpUpdate:
		if ev.After == nil {
			return nil, &ProjectionError{Op: ev.Op, Missing: "after"}
		}
		kind := KindUpsert
		if a.updateMode == UpdateModeUpdate {
			kind = KindUpdate
		}
		return &Mutation{Kind: kind, OrderID: ev.After.OrderID, UserID: ev.After.UserID}, nil

	case event.OpDelete:
		if ev.Before == nil {
			return nil, &ProjectionError{Op: ev.Op, Missing: "before"}
		}
		return &Mutation{Kind: KindDelete, OrderID: ev.Before.OrderID}, nil

	default:
		// decoding only admits the four operations above
		return nil, fmt.Errorf("unhandled operation %d", ev.Op)
	}
}
