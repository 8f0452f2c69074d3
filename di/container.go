package di

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"

	"github.com/web3tea/changesink/applier"
	"github.com/web3tea/changesink/config"
	"github.com/web3tea/changesink/pkg/log"
	"github.com/web3tea/changesink/replicator"
	"github.com/web3tea/changesink/sink"
	"github.com/web3tea/changesink/source"
)

func SetupContainer(cfgPath string) do.Injector {
	injector := do.New()

	do.ProvideNamedValue(injector, "configPath", cfgPath)
	do.Provide(injector, NewConfig)
	do.Provide(injector, NewPool)
	do.Provide(injector, NewSource)
	do.Provide(injector, NewApplier)
	do.Provide(injector, NewSink)
	do.Provide(injector, NewReplicator)

	return injector
}

func NewConfig(i do.Injector) (*config.Config, error) {
	return config.Load(do.MustInvokeNamed[string](i, "configPath"))
}

func NewPool(i do.Injector) (*pgxpool.Pool, error) {
	cfg := do.MustInvoke[*config.Config](i)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Destination.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to create destination pool: %w", err)
	}
	return pool, nil
}

func NewSource(i do.Injector) (source.Source, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return source.NewKafkaSource(cfg.Kafka, log.NewZerologAdapter(log.Named("source")))
}

func NewApplier(i do.Injector) (*applier.Applier, error) {
	cfg := do.MustInvoke[*config.Config](i)

	mode, err := applier.ParseUpdateMode(cfg.Replicator.UpdateMode)
	if err != nil {
		return nil, err
	}
	return applier.New(mode), nil
}

func NewSink(i do.Injector) (sink.Sink, error) {
	cfg := do.MustInvoke[*config.Config](i)

	switch cfg.Sink.Type {
	case "", "postgres":
		pool := do.MustInvoke[*pgxpool.Pool](i)
		return sink.NewPostgresSink(pool, sink.PostgresConfig{
			Table:        cfg.Destination.Table,
			WriteTimeout: cfg.Replicator.WriteTimeout(),
		}), nil
	case "console":
		return sink.NewConsoleSink(), nil
	case "stdout":
		return sink.NewStdoutSink(), nil
	case "memory":
		return sink.NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", cfg.Sink.Type)
	}
}

func NewReplicator(i do.Injector) (*replicator.Replicator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	src := do.MustInvoke[source.Source](i)
	app := do.MustInvoke[*applier.Applier](i)
	snk := do.MustInvoke[sink.Sink](i)

	return replicator.New(src, app, snk,
		replicator.WithMaxRetries(cfg.Replicator.MaxRetries),
		replicator.WithRetryBackoff(cfg.Replicator.RetryBackoff()),
		replicator.WithMaxBackoff(cfg.Replicator.MaxBackoff()),
		replicator.WithLogger(log.NewZerologAdapter(log.Named("replicator"))),
	), nil
}
