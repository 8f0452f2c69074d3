package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSucceedsAfterFailures(t *testing.T) {
	calls := 0
	probe := Probe{
		Name: "slow service",
		Check: func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		},
	}

	err := Wait(context.Background(), Config{Attempts: 5, Interval: time.Millisecond}, probe)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWaitExhaustsAttempts(t *testing.T) {
	calls := 0
	probe := Probe{
		Name: "dead service",
		Check: func(ctx context.Context) error {
			calls++
			return errors.New("still down")
		},
	}

	err := Wait(context.Background(), Config{Attempts: 4, Interval: time.Millisecond}, probe)
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "dead service")
	assert.Contains(t, err.Error(), "still down")
}

func TestWaitRunsProbesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) Probe {
		return Probe{Name: name, Check: func(ctx context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	err := Wait(context.Background(), Config{Attempts: 1, Interval: time.Millisecond}, mk("first"), mk("second"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestWaitStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := Probe{
		Name: "any",
		Check: func(ctx context.Context) error {
			return errors.New("down")
		},
	}

	err := Wait(ctx, Config{Attempts: 10, Interval: time.Second}, probe)
	assert.ErrorIs(t, err, context.Canceled)
}
