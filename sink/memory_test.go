package sink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3tea/changesink/applier"
)

func TestMemorySinkUpsertIsIdempotent(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	mut := &applier.Mutation{Kind: applier.KindUpsert, OrderID: 7, UserID: 3}
	require.NoError(t, s.Apply(ctx, mut))
	require.NoError(t, s.Apply(ctx, mut))

	userID, ok := s.Row(7)
	require.True(t, ok)
	assert.Equal(t, int64(3), userID)
	assert.Equal(t, 1, s.Len())
}

func TestMemorySinkUpdateMissIsSoftNoop(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, &applier.Mutation{Kind: applier.KindUpdate, OrderID: 1, UserID: 5}))
	_, ok := s.Row(1)
	assert.False(t, ok)
}

func TestMemorySinkDeleteIsIdempotent(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, &applier.Mutation{Kind: applier.KindUpsert, OrderID: 1, UserID: 5}))
	require.NoError(t, s.Apply(ctx, &applier.Mutation{Kind: applier.KindDelete, OrderID: 1}))
	require.NoError(t, s.Apply(ctx, &applier.Mutation{Kind: applier.KindDelete, OrderID: 1}))

	assert.Equal(t, 0, s.Len())
}

func TestPostgresSinkSQLQuotesTable(t *testing.T) {
	s := NewPostgresSink(nil, PostgresConfig{Table: "orders_replica"})

	assert.Contains(t, s.upsertSQL, `"orders_replica"`)
	assert.Contains(t, s.upsertSQL, "ON CONFLICT (order_id) DO UPDATE")
	assert.Contains(t, s.updateSQL, `WHERE order_id = $1`)
	assert.Contains(t, s.deleteSQL, `DELETE FROM "orders_replica"`)
	assert.Equal(t, "postgres", s.Type())
}
