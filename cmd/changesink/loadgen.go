package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"

	"github.com/web3tea/changesink/bootstrap"
	"github.com/web3tea/changesink/config"
	"github.com/web3tea/changesink/loadgen"
	"github.com/web3tea/changesink/pkg/log"
)

var loadgenCmd = &cli.Command{
	Name:  "loadgen",
	Usage: "Generate synthetic mutations against the source orders table",
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		if err := log.SetLevelFromString(cfg.LogLevel); err != nil {
			return err
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		// for this command the POSTGRES_* settings point at the
		// source database, not the replica
		pool, err := pgxpool.New(sigCtx, cfg.Destination.ConnString())
		if err != nil {
			return fmt.Errorf("failed to create source pool: %w", err)
		}
		defer pool.Close()

		if err := bootstrap.Wait(sigCtx, bootstrap.Config{
			Attempts: cfg.Bootstrap.Attempts,
			Interval: cfg.Bootstrap.Interval(),
		}, bootstrap.PostgresProbe(pool)); err != nil {
			return err
		}

		gen := loadgen.New(pool, loadgen.Config{
			Table:    cfg.Loadgen.Table,
			Interval: cfg.Loadgen.Interval(),
		})
		if err := gen.EnsureSchema(sigCtx); err != nil {
			return err
		}

		return gen.Run(sigCtx)
	},
}
