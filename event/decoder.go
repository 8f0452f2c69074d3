package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// DecodeError marks a message payload that can never be applied: broken
// JSON, a missing or unknown op discriminant, or an envelope with
// neither before nor after state. The consumer skips such messages and
// still advances the offset so a poisoned message cannot block the
// partition.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode event: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode event: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// envelope is the Debezium-style payload on the wire.
type envelope struct {
	Before *Row    `json:"before"`
	After  *Row    `json:"after"`
	Op     *string `json:"op"`
	TsMS   *int64  `json:"ts_ms"`
}

// Decode parses one transport payload into a ChangeEvent.
//
// A nil/empty payload is a tombstone: decoding succeeds and yields no
// event. Any other failure to produce a well-formed event returns a
// *DecodeError.
func Decode(value []byte) (*ChangeEvent, error) {
	if len(value) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}

	if env.Op == nil {
		return nil, &DecodeError{Reason: "missing op field"}
	}

	op, err := parseOperation(*env.Op)
	if err != nil {
		return nil, &DecodeError{Reason: "bad op field", Err: err}
	}

	if env.Before == nil && env.After == nil {
		return nil, &DecodeError{Reason: "envelope has neither before nor after state"}
	}

	ev := &ChangeEvent{
		Op:     op,
		Before: env.Before,
		After:  env.After,
	}
	if env.TsMS != nil {
		ev.Timestamp = time.UnixMilli(*env.TsMS).UTC()
	}
	return ev, nil
}

func parseOperation(s string) (Operation, error) {
	switch s {
	case "c":
		return OpCreate, nil
	case "r":
		return OpRead, nil
	case "u":
		return OpUpdate, nil
	case "d":
		return OpDelete, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}
