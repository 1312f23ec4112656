// Tests for the property registry: creation rules, ordering and reorder.
package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func propertyNames(props []*types.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Name
	}
	return out
}

func TestProperties_Create(t *testing.T) {
	f := newFixture(t)
	f.property("Sprint", types.TypeInt)

	tests := []struct {
		name    string
		colID   int64
		prop    string
		vt      types.ValueType
		wantErr error
	}{
		{"empty name", f.col.ID, "   ", types.TypeInt, types.ErrInvalidName},
		{"unknown type", f.col.ID, "Effort", types.ValueType(99), types.ErrInvalidValueType},
		{"duplicate name", f.col.ID, "Sprint", types.TypeString, types.ErrConflict},
		{"missing collection", 999, "Effort", types.TypeInt, types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.b.Properties().Create(f.ctx, testAuth, tt.colID, tt.prop, tt.vt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("name is trimmed", func(t *testing.T) {
		p := f.property("  Owner ", types.TypeString)
		assert.Equal(t, "Owner", p.Name)
		assert.Nil(t, p.Order)
	})

	t.Run("same name in another collection", func(t *testing.T) {
		other, err := f.b.Collections().Create(f.ctx, testAuth, "Other")
		require.NoError(t, err)
		_, err = f.b.Properties().Create(f.ctx, testAuth, other.ID, "Sprint", types.TypeInt)
		assert.NoError(t, err)
	})
}

func TestProperties_Limit(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	require.NoError(t, b.Attach(ctx, types.Config{
		Backend:       types.BackendSQLite,
		DataDir:       t.TempDir(),
		MaxProperties: 3,
	}))
	defer b.Detach()

	col, err := b.Collections().Create(ctx, testAuth, "Tasks")
	require.NoError(t, err)
	for i := range 3 {
		_, err := b.Properties().Create(ctx, testAuth, col.ID, fmt.Sprintf("p%d", i), types.TypeInt)
		require.NoError(t, err)
	}
	_, err = b.Properties().Create(ctx, testAuth, col.ID, "p3", types.TypeInt)
	assert.ErrorIs(t, err, types.ErrPropertyLimit)
}

func TestProperties_ListOrder(t *testing.T) {
	f := newFixture(t)
	a := f.property("A", types.TypeInt)
	f.property("B", types.TypeInt)
	c := f.property("C", types.TypeInt)

	// Unordered properties list by id.
	props, err := f.b.Properties().List(f.ctx, testAuth, types.PropertyQuery{CollectionID: f.col.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, propertyNames(props))

	// Ordered properties come first, nulls last.
	require.NoError(t, setOrder(f.ctx, f.b.db, c.ID, 0))
	require.NoError(t, setOrder(f.ctx, f.b.db, a.ID, 1))
	props, err = f.b.Properties().List(f.ctx, testAuth, types.PropertyQuery{CollectionID: f.col.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, propertyNames(props))

	props, err = f.b.Properties().List(f.ctx, testAuth, types.PropertyQuery{CollectionID: f.col.ID, OrderIn: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, propertyNames(props))

	_, err = f.b.Properties().List(f.ctx, testAuth, types.PropertyQuery{CollectionID: 999})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProperties_Reorder(t *testing.T) {
	tests := []struct {
		name string
		move string
		dir  types.MoveDirection
		want []string
	}{
		{"middle up", "B", types.MoveUp, []string{"B", "A", "C"}},
		{"middle down", "B", types.MoveDown, []string{"A", "C", "B"}},
		{"first up is a no-op", "A", types.MoveUp, []string{"A", "B", "C"}},
		{"last down is a no-op", "C", types.MoveDown, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			byName := map[string]*types.Property{}
			for _, n := range []string{"A", "B", "C"} {
				byName[n] = f.property(n, types.TypeString)
			}

			props, err := f.b.Properties().Reorder(f.ctx, testAuth, byName[tt.move].ID, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, propertyNames(props))
			for _, p := range props {
				assert.NotNil(t, p.Order, "property %s should have an order after reorder", p.Name)
			}
		})
	}
}

func TestProperties_ReorderRoundTrip(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"A", "B", "C", "D"} {
		f.property(n, types.TypeInt)
	}
	before, err := f.b.Properties().List(f.ctx, testAuth, types.PropertyQuery{CollectionID: f.col.ID})
	require.NoError(t, err)

	// Moving the first property up is a no-op, so its round trip is not one.
	for _, p := range before[1:] {
		_, err := f.b.Properties().Reorder(f.ctx, testAuth, p.ID, types.MoveUp)
		require.NoError(t, err)
		after, err := f.b.Properties().Reorder(f.ctx, testAuth, p.ID, types.MoveDown)
		require.NoError(t, err)
		assert.Equal(t, propertyNames(before), propertyNames(after), "round trip of %s", p.Name)
	}
}

func TestProperties_ReorderInvalid(t *testing.T) {
	f := newFixture(t)
	p := f.property("A", types.TypeInt)

	_, err := f.b.Properties().Reorder(f.ctx, testAuth, p.ID, types.MoveDirection(7))
	assert.ErrorIs(t, err, types.ErrInvalidDirection)
	_, err = f.b.Properties().Reorder(f.ctx, testAuth, 999, types.MoveUp)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProperties_Rename(t *testing.T) {
	f := newFixture(t)
	p := f.property("Sprint", types.TypeInt)
	f.property("Owner", types.TypeString)

	require.NoError(t, f.b.Properties().Rename(f.ctx, testAuth, p.ID, "Iteration"))
	got, err := f.b.Properties().Get(f.ctx, testAuth, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Iteration", got.Name)

	assert.ErrorIs(t, f.b.Properties().Rename(f.ctx, testAuth, p.ID, "Owner"), types.ErrConflict)
	assert.ErrorIs(t, f.b.Properties().Rename(f.ctx, testAuth, 999, "X"), types.ErrNotFound)
}

func TestProperties_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	sprint := f.property("Sprint", types.TypeInt)
	pg := f.page("A")
	f.set(pg, sprint, types.NewInt(3))
	flt := f.filter(sprint, types.FilterGreaterThan, types.Operand{Value: types.NewInt(1)})
	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: sprint.ID, Direction: types.SortDescending}))

	require.NoError(t, f.b.Properties().Delete(f.ctx, testAuth, sprint.ID))

	_, err := f.b.Properties().Get(f.ctx, testAuth, sprint.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.b.Filters().Get(f.ctx, testAuth, flt.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, ok, err := f.b.Sorts().Get(f.ctx, testAuth, f.col.ID)
	require.NoError(t, err)
	assert.False(t, ok, "sort on a deleted property is cleared")

	var rows int
	require.NoError(t, f.b.db.QueryRow("SELECT COUNT(*) FROM propval_int WHERE prop_id = ?", sprint.ID).Scan(&rows))
	assert.Zero(t, rows)

	assert.ErrorIs(t, f.b.Properties().Delete(f.ctx, testAuth, sprint.ID), types.ErrNotFound)
}
