package loadgen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/web3tea/changesink/pkg/log"
)

var firstNames = []string{
	"John", "Jane", "Michael", "Emily", "David", "Sarah", "Robert", "Emma",
	"William", "Olivia", "James", "Ava", "Richard", "Isabella", "Thomas", "Sophia",
	"Daniel", "Mia", "Matthew", "Charlotte", "Kevin", "Sofia", "George", "Ella",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Wilson", "Anderson", "Taylor", "Moore", "Lee", "White",
	"Harris", "Clark", "Lewis", "Walker", "Young", "King", "Scott", "Hill",
}

// Config configures the synthetic source mutator.
type Config struct {
	// Table is the source orders table to mutate.
	Table string

	// Interval is the pause between operations.
	Interval time.Duration
}

// Generator mutates the source orders table on a fixed interval with a
// 70/20/10 insert/update/delete mix, giving the capture pipeline a
// steady stream of change events to replicate.
type Generator struct {
	pool   *pgxpool.Pool
	cfg    Config
	logger zerolog.Logger
	rng    *rand.Rand
}

func New(pool *pgxpool.Pool, cfg Config) *Generator {
	if cfg.Table == "" {
		cfg.Table = "orders"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &Generator{
		pool:   pool,
		cfg:    cfg,
		logger: log.Named("loadgen").With().Str("run_id", uuid.NewString()).Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// EnsureSchema creates the source table when absent.
func (g *Generator) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	order_id BIGSERIAL PRIMARY KEY,
	user_id  BIGINT NOT NULL,
	name     TEXT NOT NULL
)`, pq.QuoteIdentifier(g.cfg.Table))

	if _, err := g.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure source schema: %w", err)
	}
	return nil
}

// Run generates operations until ctx is done.
func (g *Generator) Run(ctx context.Context) error {
	g.logger.Info().
		Str("table", g.cfg.Table).
		Dur("interval", g.cfg.Interval).
		Msg("load generator started")

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	counter := 0
	for {
		select {
		case <-ctx.Done():
			g.logger.Info().Msg("load generator stopped")
			return nil
		case <-ticker.C:
			counter++
			if err := g.step(ctx); err != nil {
				g.logger.Error().Err(err).Msg("operation failed")
			}
			if counter%10 == 0 {
				g.logStats(ctx)
			}
		}
	}
}

// step performs one weighted random operation: 70% insert, 20% update,
// 10% delete.
func (g *Generator) step(ctx context.Context) error {
	switch n := g.rng.Intn(100); {
	case n < 70:
		return g.insert(ctx)
	case n < 90:
		return g.update(ctx)
	default:
		return g.delete(ctx)
	}
}

func (g *Generator) insert(ctx context.Context) error {
	userID, name := g.randomOrder()

	var orderID int64
	sql := fmt.Sprintf("INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING order_id",
		pq.QuoteIdentifier(g.cfg.Table))
	if err := g.pool.QueryRow(ctx, sql, userID, name).Scan(&orderID); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	g.logger.Info().Int64("order_id", orderID).Int64("user_id", userID).Str("name", name).Msg("inserted")
	return nil
}

func (g *Generator) update(ctx context.Context) error {
	orderID, ok, err := g.randomExisting(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// nothing to update yet, insert instead
		return g.insert(ctx)
	}

	userID, name := g.randomOrder()
	sql := fmt.Sprintf("UPDATE %s SET user_id = $1, name = $2 WHERE order_id = $3",
		pq.QuoteIdentifier(g.cfg.Table))
	if _, err := g.pool.Exec(ctx, sql, userID, name, orderID); err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	g.logger.Info().Int64("order_id", orderID).Int64("user_id", userID).Str("name", name).Msg("updated")
	return nil
}

func (g *Generator) delete(ctx context.Context) error {
	orderID, ok, err := g.randomExisting(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return g.insert(ctx)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE order_id = $1", pq.QuoteIdentifier(g.cfg.Table))
	if _, err := g.pool.Exec(ctx, sql, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	g.logger.Info().Int64("order_id", orderID).Msg("deleted")
	return nil
}

func (g *Generator) randomExisting(ctx context.Context) (int64, bool, error) {
	sql := fmt.Sprintf("SELECT order_id FROM %s ORDER BY RANDOM() LIMIT 1",
		pq.QuoteIdentifier(g.cfg.Table))

	var orderID int64
	err := g.pool.QueryRow(ctx, sql).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("pick random order: %w", err)
	}
	return orderID, true, nil
}

func (g *Generator) randomOrder() (int64, string) {
	name := lo.Sample(firstNames) + " " + lo.Sample(lastNames)
	userID := int64(g.rng.Intn(10000) + 1)
	return userID, name
}

func (g *Generator) logStats(ctx context.Context) {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(g.cfg.Table))

	var count int64
	if err := g.pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		g.logger.Warn().Err(err).Msg("failed to count orders")
		return
	}
	g.logger.Info().Int64("total_orders", count).Msg("source table stats")
}
