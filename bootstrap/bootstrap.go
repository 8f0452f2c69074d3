package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"

	"github.com/web3tea/changesink/pkg/log"
)

// Probe is one bounded readiness check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Config bounds the readiness polling.
type Config struct {
	Attempts int           // total attempts per probe
	Interval time.Duration // pause between attempts
}

// Wait polls every probe until it succeeds or its attempt budget is
// spent. Probes run in order; the first exhausted probe aborts the
// whole gate with an error.
func Wait(ctx context.Context, cfg Config, probes ...Probe) error {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	for _, probe := range probes {
		if err := waitOne(ctx, cfg, probe); err != nil {
			return err
		}
	}
	return nil
}

func waitOne(ctx context.Context, cfg Config, probe Probe) error {
	var lastErr error

	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = probe.Check(ctx)
		if lastErr == nil {
			log.Infof("%s is ready", probe.Name)
			return nil
		}
		log.Warnf("waiting for %s (attempt %d/%d): %v", probe.Name, attempt, cfg.Attempts, lastErr)

		if attempt < cfg.Attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
		}
	}

	return fmt.Errorf("%s not ready after %d attempts: %w", probe.Name, cfg.Attempts, lastErr)
}

// KafkaProbe checks that at least one broker accepts connections.
func KafkaProbe(brokers []string) Probe {
	return Probe{
		Name: "kafka",
		Check: func(ctx context.Context) error {
			dialer := &kafka.Dialer{Timeout: 10 * time.Second}
			var lastErr error
			for _, broker := range brokers {
				conn, err := dialer.DialContext(ctx, "tcp", broker)
				if err != nil {
					lastErr = err
					continue
				}
				conn.Close()
				return nil
			}
			if lastErr == nil {
				lastErr = fmt.Errorf("no brokers configured")
			}
			return lastErr
		},
	}
}

// PostgresProbe checks that the destination answers a ping.
func PostgresProbe(pool *pgxpool.Pool) Probe {
	return Probe{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
	}
}
