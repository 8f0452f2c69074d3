package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/web3tea/changesink/applier"
	"github.com/web3tea/changesink/pkg/log"
)

const defaultWriteTimeout = 5 * time.Second

// PostgresConfig configures the destination writer.
type PostgresConfig struct {
	// Table is the destination table name, unqualified.
	Table string

	// WriteTimeout bounds each statement; destination calls never
	// suspend indefinitely.
	WriteTimeout time.Duration
}

// PostgresSink materializes mutations into a narrowed orders table
// keyed by order_id. It is the sole writer of destination rows.
type PostgresSink struct {
	pool   *pgxpool.Pool
	cfg    PostgresConfig
	logger zerolog.Logger

	upsertSQL string
	updateSQL string
	deleteSQL string
}

func NewPostgresSink(pool *pgxpool.Pool, cfg PostgresConfig) *PostgresSink {
	if cfg.Table == "" {
		cfg.Table = "orders"
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	table := pq.QuoteIdentifier(cfg.Table)
	return &PostgresSink{
		pool:   pool,
		cfg:    cfg,
		logger: log.Named("sink.postgres"),
		upsertSQL: fmt.Sprintf(`INSERT INTO %s (order_id, user_id) VALUES ($1, $2)
ON CONFLICT (order_id) DO UPDATE SET user_id = EXCLUDED.user_id`, table),
		updateSQL: fmt.Sprintf(`UPDATE %s SET user_id = $2 WHERE order_id = $1`, table),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE order_id = $1`, table),
	}
}

// EnsureSchema creates the destination table when absent.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	order_id BIGINT PRIMARY KEY,
	user_id  BIGINT NOT NULL
)`, pq.QuoteIdentifier(s.cfg.Table))

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure destination schema: %w", err)
	}
	return nil
}

// Apply implements Sink.
func (s *PostgresSink) Apply(ctx context.Context, m *applier.Mutation) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	switch m.Kind {
	case applier.KindUpsert:
		// single atomic statement, not read-then-write, so concurrent
		// partitions writing disjoint keys cannot race
		if _, err := s.pool.Exec(ctx, s.upsertSQL, m.OrderID, m.UserID); err != nil {
			return classify(err)
		}
		return nil

	case applier.KindUpdate:
		tag, err := s.pool.Exec(ctx, s.updateSQL, m.OrderID, m.UserID)
		if err != nil {
			return classify(err)
		}
		if tag.RowsAffected() == 0 {
			// the row may legitimately not exist yet if the create is
			// still in flight; soft failure, offset still commits
			s.logger.Warn().
				Int64("order_id", m.OrderID).
				Msg("update matched no rows, skipping")
		}
		return nil

	case applier.KindDelete:
		// deleting an absent key is success
		if _, err := s.pool.Exec(ctx, s.deleteSQL, m.OrderID); err != nil {
			return classify(err)
		}
		return nil

	default:
		return &FatalError{Err: fmt.Errorf("unknown mutation kind %d", m.Kind)}
	}
}

// Close implements Sink.
func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

// Type implements Sink.
func (s *PostgresSink) Type() string {
	return "postgres"
}

var _ Sink = (*PostgresSink)(nil)
