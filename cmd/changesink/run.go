package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
	"github.com/urfave/cli/v3"

	"github.com/web3tea/changesink/bootstrap"
	"github.com/web3tea/changesink/config"
	"github.com/web3tea/changesink/di"
	"github.com/web3tea/changesink/metrics"
	"github.com/web3tea/changesink/pkg/log"
	"github.com/web3tea/changesink/replicator"
	"github.com/web3tea/changesink/sink"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Consume change events and apply them to the destination",
	Action: func(ctx context.Context, c *cli.Command) error {
		injector := di.SetupContainer(c.String("config"))

		cfg := do.MustInvoke[*config.Config](injector)
		if err := log.SetLevelFromString(cfg.LogLevel); err != nil {
			return err
		}

		if cfg.Metrics.Enabled {
			metrics.Serve(cfg.Metrics.Address)
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		// readiness gate: the loop only starts once transport and
		// destination answer
		probes := []bootstrap.Probe{bootstrap.KafkaProbe(cfg.Kafka.Brokers)}
		if cfg.Sink.Type == "" || cfg.Sink.Type == "postgres" {
			pool := do.MustInvoke[*pgxpool.Pool](injector)
			probes = append(probes, bootstrap.PostgresProbe(pool))
		}
		if err := bootstrap.Wait(sigCtx, bootstrap.Config{
			Attempts: cfg.Bootstrap.Attempts,
			Interval: cfg.Bootstrap.Interval(),
		}, probes...); err != nil {
			return err
		}

		rep := do.MustInvoke[*replicator.Replicator](injector)
		if ps, ok := rep.Sink.(*sink.PostgresSink); ok {
			if err := ps.EnsureSchema(sigCtx); err != nil {
				return err
			}
		}

		if err := rep.Start(sigCtx); err != nil {
			return err
		}
		log.Infof("changesink started, consuming from %s", cfg.Kafka.Topic)

		select {
		case <-sigCtx.Done():
			log.Infof("shutdown requested, draining")
		case <-rep.Done():
		}

		if err := rep.Stop(); err != nil {
			log.Errorf("failed to stop replicator: %v", err)
		}

		// a fatal error must exit non-zero so a supervisor can restart
		if err := rep.Err(); err != nil {
			return err
		}

		log.Infof("changesink stopped")
		return nil
	},
}
