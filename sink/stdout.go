package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/web3tea/changesink/applier"
	"github.com/web3tea/changesink/pkg/log"
)

// StdoutSink prints each mutation as one JSON line. A dry-run sink:
// nothing is written to the destination database.
type StdoutSink struct{}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{}
}

type stdoutRecord struct {
	Kind    string `json:"kind"`
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id,omitempty"`
}

// Apply implements Sink.
func (s *StdoutSink) Apply(ctx context.Context, m *applier.Mutation) error {
	rec := stdoutRecord{
		Kind:    m.Kind.String(),
		OrderID: m.OrderID,
	}
	if m.Kind != applier.KindDelete {
		rec.UserID = m.UserID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		log.Errorf("failed to marshal mutation: %v", err)
		return nil
	}
	fmt.Println(string(data))
	return nil
}

// Close implements Sink.
func (s *StdoutSink) Close() error {
	return nil
}

// Type implements Sink.
func (s *StdoutSink) Type() string {
	return "stdout"
}

var _ Sink = (*StdoutSink)(nil)
