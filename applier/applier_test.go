package applier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3tea/changesink/event"
)

func TestPlanCreateAndReadBecomeUpsert(t *testing.T) {
	a := New(UpdateModeUpsert)

	for _, op := range []event.Operation{event.OpCreate, event.OpRead} {
		ev := &event.ChangeEvent{
			Op:    op,
			After: &event.Row{OrderID: 7, UserID: 3, Name: "Ann"},
		}

		mut, err := a.Plan(ev)
		require.NoError(t, err)
		assert.Equal(t, KindUpsert, mut.Kind)
		assert.Equal(t, int64(7), mut.OrderID)
		assert.Equal(t, int64(3), mut.UserID)
	}
}

func TestPlanUpdateDefaultsToUpsert(t *testing.T) {
	a := New(UpdateModeUpsert)

	mut, err := a.Plan(&event.ChangeEvent{
		Op:    event.OpUpdate,
		After: &event.Row{OrderID: 1, UserID: 9, Name: "Bea"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindUpsert, mut.Kind)
}

func TestPlanUpdateModeUpdate(t *testing.T) {
	a := New(UpdateModeUpdate)

	mut, err := a.Plan(&event.ChangeEvent{
		Op:    event.OpUpdate,
		After: &event.Row{OrderID: 1, UserID: 9, Name: "Bea"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, mut.Kind)
}

func TestPlanDeleteUsesBeforeKey(t *testing.T) {
	a := New(UpdateModeUpsert)

	mut, err := a.Plan(&event.ChangeEvent{
		Op:     event.OpDelete,
		Before: &event.Row{OrderID: 5, UserID: 2, Name: "Cal"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindDelete, mut.Kind)
	assert.Equal(t, int64(5), mut.OrderID)
}

func TestPlanMissingProjection(t *testing.T) {
	a := New(UpdateModeUpsert)

	cases := []struct {
		name string
		ev   *event.ChangeEvent
	}{
		{"create without after", &event.ChangeEvent{Op: event.OpCreate, Before: &event.Row{OrderID: 1}}},
		{"update without after", &event.ChangeEvent{Op: event.OpUpdate, Before: &event.Row{OrderID: 1}}},
		{"delete without before", &event.ChangeEvent{Op: event.OpDelete, After: &event.Row{OrderID: 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mut, err := a.Plan(tc.ev)
			assert.Nil(t, mut)

			var pe *ProjectionError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestMutationDropsNameField(t *testing.T) {
	// projection narrowing is structural: Mutation has no slot the
	// source's name column could ride along in
	a := New(UpdateModeUpsert)

	mut, err := a.Plan(&event.ChangeEvent{
		Op:    event.OpCreate,
		After: &event.Row{OrderID: 7, UserID: 3, Name: "Ann"},
	})
	require.NoError(t, err)
	assert.Equal(t, &Mutation{Kind: KindUpsert, OrderID: 7, UserID: 3}, mut)
}

func TestParseUpdateMode(t *testing.T) {
	mode, err := ParseUpdateMode("")
	require.NoError(t, err)
	assert.Equal(t, UpdateModeUpsert, mode)

	mode, err = ParseUpdateMode("update")
	require.NoError(t, err)
	assert.Equal(t, UpdateModeUpdate, mode)

	_, err = ParseUpdateMode("bogus")
	assert.Error(t, err)
}
