package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/folio/pkg/types"
)

func TestCollections_CRUD(t *testing.T) {
	f := newFixture(t)

	_, err := f.b.Collections().Create(f.ctx, testAuth, "  ")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	second, err := f.b.Collections().Create(f.ctx, testAuth, "Bugs")
	require.NoError(t, err)

	cols, err := f.b.Collections().List(f.ctx, testAuth)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "Tasks", cols[0].Name)
	assert.Equal(t, "Bugs", cols[1].Name)

	require.NoError(t, f.b.Collections().Rename(f.ctx, testAuth, second.ID, "Defects"))
	got, err := f.b.Collections().Get(f.ctx, testAuth, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Defects", got.Name)
	assert.Nil(t, got.Sort)

	assert.ErrorIs(t, f.b.Collections().Rename(f.ctx, testAuth, 999, "x"), types.ErrNotFound)
	_, err = f.b.Collections().Get(f.ctx, testAuth, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCollections_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	sprint := f.property("Sprint", types.TypeInt)
	tags := f.property("Tags", types.TypeMultiString)
	pg := f.page("A")
	f.set(pg, sprint, types.NewInt(1))
	f.set(pg, tags, types.NewMultiString([]string{"x"}))
	f.filter(tags, types.FilterEquals, types.Operand{Value: types.NewMultiString([]string{"x"})})
	require.NoError(t, f.b.Pages().SetContent(f.ctx, testAuth, pg.ID, "body"))
	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: sprint.ID, Direction: types.SortAscending}))

	require.NoError(t, f.b.Collections().Delete(f.ctx, testAuth, f.col.ID))

	for _, table := range []string{
		"property", "page", "page_content", "filter", "filter_multistring",
		"propval_int", "propval_multistring", "propval_multistring_item",
	} {
		var rows int
		require.NoError(t, f.b.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&rows))
		assert.Zero(t, rows, "table %s", table)
	}
	assert.ErrorIs(t, f.b.Collections().Delete(f.ctx, testAuth, f.col.ID), types.ErrNotFound)
}
