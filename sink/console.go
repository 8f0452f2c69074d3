package sink

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/web3tea/changesink/applier"
)

// ConsoleSink renders each mutation as a pretty one-row table on the
// console. A dry-run sink for watching a stream interactively.
type ConsoleSink struct {
	// whether to use colored output
	colorEnabled bool
	// unified table style
	tableStyle table.Style
}

// ConsoleSinkOption defines functional options for ConsoleSink
type ConsoleSinkOption func(*ConsoleSink)

// WithColorOutput enables or disables colored output
func WithColorOutput(enabled bool) ConsoleSinkOption {
	return func(s *ConsoleSink) {
		s.colorEnabled = enabled
	}
}

// NewConsoleSink creates a new console sink
func NewConsoleSink(options ...ConsoleSinkOption) *ConsoleSink {
	customStyle := table.StyleLight
	customStyle.Title = table.TitleOptions{
		Align:  text.AlignCenter,
		Colors: text.Colors{text.FgHiWhite, text.Bold},
	}
	customStyle.Color.Header = text.Colors{text.FgHiWhite, text.Bold}

	sink := &ConsoleSink{
		colorEnabled: true,
		tableStyle:   customStyle,
	}

	for _, option := range options {
		option(sink)
	}

	return sink
}

// Apply implements Sink.
func (s *ConsoleSink) Apply(ctx context.Context, m *applier.Mutation) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(s.tableStyle)
	t.SetTitle("Mutation: %s", s.colorKind(m.Kind))

	t.AppendHeader(table.Row{"order_id", "user_id"})
	if m.Kind == applier.KindDelete {
		t.AppendRow(table.Row{strconv.FormatInt(m.OrderID, 10), "-"})
	} else {
		t.AppendRow(table.Row{
			strconv.FormatInt(m.OrderID, 10),
			strconv.FormatInt(m.UserID, 10),
		})
	}

	t.Render()
	fmt.Println()
	return nil
}

func (s *ConsoleSink) colorKind(kind applier.Kind) string {
	if !s.colorEnabled {
		return kind.String()
	}
	switch kind {
	case applier.KindUpsert:
		return color.GreenString(kind.String())
	case applier.KindUpdate:
		return color.YellowString(kind.String())
	case applier.KindDelete:
		return color.RedString(kind.String())
	default:
		return kind.String()
	}
}

// Close implements Sink.
func (s *ConsoleSink) Close() error {
	return nil
}

// Type implements Sink.
func (s *ConsoleSink) Type() string {
	return "console"
}

var _ Sink = (*ConsoleSink)(nil)
