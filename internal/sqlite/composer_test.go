// Tests for the page list composer.
package sqlite

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/folio/internal/metrics"
	"github.com/mesh-intelligence/folio/pkg/types"
)

var valueComparer = cmp.Comparer(func(a, b types.Value) bool { return a.Equal(b) })

// sprintFixture builds pages A (Sprint 3, done) and B (Sprint 2, not done).
func sprintFixture(t *testing.T) (f *fixture, sprint, done *types.Property) {
	f = newFixture(t)
	sprint = f.property("Sprint", types.TypeInt)
	done = f.property("Completed", types.TypeBool)
	a := f.page("A")
	b := f.page("B")
	f.set(a, sprint, types.NewInt(3))
	f.set(a, done, types.NewBool(true))
	f.set(b, sprint, types.NewInt(2))
	f.set(b, done, types.NewBool(false))
	return f, sprint, done
}

func TestListPages_FilterEquals(t *testing.T) {
	f, _, done := sprintFixture(t)
	f.filter(done, types.FilterEquals, types.Operand{Value: types.NewBool(true)})

	assert.Equal(t, []string{"A"}, titles(f.list()))
}

func TestListPages_SortAscending(t *testing.T) {
	f, sprint, _ := sprintFixture(t)
	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: sprint.ID, Direction: types.SortAscending}))

	assert.Equal(t, []string{"B", "A"}, titles(f.list()))
}

func TestListPages_RangeSortThenDeleteProperty(t *testing.T) {
	f, sprint, _ := sprintFixture(t)
	f.filter(sprint, types.FilterInsideRange, types.Operand{Start: types.NewInt(0), End: types.NewInt(10)})
	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: sprint.ID, Direction: types.SortDescending}))

	pages := f.list()
	require.Equal(t, []string{"A", "B"}, titles(pages))
	v, ok := pages[0].Value(sprint.ID)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int())

	require.NoError(t, f.b.Properties().Delete(f.ctx, testAuth, sprint.ID))
	pages = f.list()
	assert.Equal(t, []string{"A", "B"}, titles(pages))
	for _, pg := range pages {
		assert.Len(t, pg.Properties, 1)
		_, ok := pg.Value(sprint.ID)
		assert.False(t, ok)
	}
}

func TestListPages_EveryPropertyOnEveryPage(t *testing.T) {
	f := newFixture(t)
	sprint := f.property("Sprint", types.TypeInt)
	tags := f.property("Tags", types.TypeMultiString)
	due := f.property("Due", types.TypeDate)
	a := f.page("A")
	b := f.page("B")
	f.set(a, tags, types.NewMultiString([]string{"x", "y"}))

	other, err := f.b.Collections().Create(f.ctx, testAuth, "Other")
	require.NoError(t, err)
	_, err = f.b.Pages().Create(f.ctx, testAuth, other.ID, "Elsewhere")
	require.NoError(t, err)

	want := []*types.Page{
		{ID: a.ID, CollectionID: f.col.ID, Title: "A", Properties: []types.PropertyValue{
			{PropertyID: sprint.ID, Value: types.NewInt(0)},
			{PropertyID: tags.ID, Value: types.NewMultiString([]string{"x", "y"}), Materialized: true},
			{PropertyID: due.ID, Value: types.NullValue(types.TypeDate)},
		}},
		{ID: b.ID, CollectionID: f.col.ID, Title: "B", Properties: []types.PropertyValue{
			{PropertyID: sprint.ID, Value: types.NewInt(0)},
			{PropertyID: tags.ID, Value: types.NewMultiString(nil)},
			{PropertyID: due.ID, Value: types.NullValue(types.TypeDate)},
		}},
	}
	if diff := cmp.Diff(want, f.list(), valueComparer); diff != "" {
		t.Errorf("page list mismatch (-want +got):\n%s", diff)
	}
}

func TestListPages_IsEmpty(t *testing.T) {
	f := newFixture(t)
	sprint := f.property("Sprint", types.TypeInt)
	a := f.page("A")
	f.page("B")
	c := f.page("C")
	f.set(a, sprint, types.NewInt(0))
	f.set(c, sprint, types.NewInt(7))
	f.filter(sprint, types.FilterIsEmpty, types.Operand{})

	// A holds the default value but it is materialized, so it is not empty.
	assert.Equal(t, []string{"B"}, titles(f.list()))
}

func TestListPages_StoredValueComparison(t *testing.T) {
	f := newFixture(t)
	sprint := f.property("Sprint", types.TypeInt)
	a := f.page("A")
	f.page("B")
	f.set(a, sprint, types.NewInt(5))
	flt := f.filter(sprint, types.FilterNotEquals, types.Operand{Value: types.NewInt(1)})

	assert.Equal(t, []string{"A"}, titles(f.list()), "pages without a value only match IsEmpty")

	_, err := f.b.Filters().Update(f.ctx, testAuth, flt.ID, types.FilterNotInsideRange,
		types.Operand{Start: types.NewInt(0), End: types.NewInt(4)})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles(f.list()))
}

func TestListPages_Kinds(t *testing.T) {
	day := func(d int) types.Value { return types.NewDate(time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)) }
	at := func(h int) types.Value { return types.NewDatetime(time.Date(2026, 1, 1, h, 0, 0, 0, time.UTC)) }

	tests := []struct {
		name   string
		vt     types.ValueType
		values []types.Value
		kind   types.FilterKind
		op     types.Operand
		want   []string
	}{
		{"string greater", types.TypeString,
			[]types.Value{types.NewString("apple"), types.NewString("kiwi"), types.NewString("pear")},
			types.FilterGreaterThan, types.Operand{Value: types.NewString("banana")}, []string{"p1", "p2"}},
		{"string less", types.TypeString,
			[]types.Value{types.NewString("apple"), types.NewString("kiwi"), types.NewString("pear")},
			types.FilterLessThan, types.Operand{Value: types.NewString("kiwi")}, []string{"p0"}},
		{"float range inclusive", types.TypeFloat,
			[]types.Value{types.NewFloat(0.5), types.NewFloat(1.5), types.NewFloat(2.5)},
			types.FilterInsideRange, types.Operand{Start: types.NewFloat(0.5), End: types.NewFloat(1.5)}, []string{"p0", "p1"}},
		{"date less", types.TypeDate,
			[]types.Value{day(1), day(10), day(20)},
			types.FilterLessThan, types.Operand{Value: day(10)}, []string{"p0"}},
		{"date outside range", types.TypeDate,
			[]types.Value{day(1), day(10), day(20)},
			types.FilterNotInsideRange, types.Operand{Start: day(5), End: day(15)}, []string{"p0", "p2"}},
		{"datetime equals", types.TypeDatetime,
			[]types.Value{at(1), at(2), at(3)},
			types.FilterEquals, types.Operand{Value: at(2)}, []string{"p1"}},
		{"bool not equals", types.TypeBool,
			[]types.Value{types.NewBool(true), types.NewBool(false), types.NewBool(true)},
			types.FilterNotEquals, types.Operand{Value: types.NewBool(true)}, []string{"p1"}},
		{"multistring contains all", types.TypeMultiString,
			[]types.Value{
				types.NewMultiString([]string{"a", "b"}),
				types.NewMultiString([]string{"a"}),
				types.NewMultiString([]string{"b", "c", "a"}),
			},
			types.FilterEquals, types.Operand{Value: types.NewMultiString([]string{"a", "b"})}, []string{"p0", "p2"}},
		{"multistring contains none", types.TypeMultiString,
			[]types.Value{
				types.NewMultiString([]string{"a", "b"}),
				types.NewMultiString([]string{"c"}),
				types.NewMultiString(nil),
			},
			types.FilterNotEquals, types.Operand{Value: types.NewMultiString([]string{"a", "b"})}, []string{"p1", "p2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.property("P", tt.vt)
			for i, v := range tt.values {
				f.set(f.page(fmt.Sprintf("p%d", i)), p, v)
			}
			f.page("unset")
			f.filter(p, tt.kind, tt.op)

			assert.Equal(t, tt.want, titles(f.list()))
		})
	}
}

func TestListPages_SortMissingAsDefault(t *testing.T) {
	f := newFixture(t)
	score := f.property("Score", types.TypeInt)
	f.set(f.page("neg"), score, types.NewInt(-1))
	f.page("unset")
	f.set(f.page("pos"), score, types.NewInt(1))
	f.set(f.page("zero"), score, types.NewInt(0))

	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: score.ID, Direction: types.SortAscending}))
	assert.Equal(t, []string{"neg", "unset", "zero", "pos"}, titles(f.list()),
		"unset sorts as 0, ties broken by page id")

	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: score.ID, Direction: types.SortDescending}))
	assert.Equal(t, []string{"pos", "unset", "zero", "neg"}, titles(f.list()))

	require.NoError(t, f.b.Sorts().Clear(f.ctx, testAuth, f.col.ID))
	assert.Equal(t, []string{"neg", "unset", "pos", "zero"}, titles(f.list()))
}

func TestListPages_DatetimeAcrossCenturies(t *testing.T) {
	f := newFixture(t)
	due := f.property("Due", types.TypeDatetime)
	at := func(year int) types.Value {
		return types.NewDatetime(time.Date(year, 6, 1, 8, 0, 0, 0, time.UTC))
	}
	f.set(f.page("y3000"), due, at(3000))
	f.set(f.page("y1600"), due, at(1600))
	f.set(f.page("y2026"), due, at(2026))
	f.set(f.page("y2026+1ns"), due, types.NewDatetime(at(2026).Time().Add(1)))

	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: due.ID, Direction: types.SortAscending}))
	assert.Equal(t, []string{"y1600", "y2026", "y2026+1ns", "y3000"}, titles(f.list()))

	f.filter(due, types.FilterInsideRange, types.Operand{Start: at(1500), End: at(2100)})
	assert.Equal(t, []string{"y1600", "y2026", "y2026+1ns"}, titles(f.list()))
}

func TestListPages_SortMultiStringByCount(t *testing.T) {
	f := newFixture(t)
	tags := f.property("Tags", types.TypeMultiString)
	f.set(f.page("three"), tags, types.NewMultiString([]string{"a", "b", "c"}))
	f.set(f.page("one"), tags, types.NewMultiString([]string{"z"}))
	f.page("none")

	require.NoError(t, f.b.Sorts().Set(f.ctx, testAuth, f.col.ID, types.Sort{PropertyID: tags.ID, Direction: types.SortAscending}))
	assert.Equal(t, []string{"none", "one", "three"}, titles(f.list()))
}

func TestListPages_Pagination(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()
	require.NoError(t, b.Attach(ctx, types.Config{
		Backend:         types.BackendSQLite,
		DataDir:         t.TempDir(),
		DefaultPageSize: 3,
	}))
	defer b.Detach()
	col, err := b.Collections().Create(ctx, testAuth, "Tasks")
	require.NoError(t, err)
	for i := range 7 {
		_, err := b.Pages().Create(ctx, testAuth, col.ID, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{"default page size", 0, 0, []string{"p0", "p1", "p2"}},
		{"explicit window", 2, 3, []string{"p3", "p4"}},
		{"past the end", 5, 6, []string{"p6"}},
		{"no limit", -1, 4, []string{"p4", "p5", "p6"}},
		{"negative offset", 1, -5, []string{"p0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := b.ListPages(ctx, testAuth, types.PageQuery{CollectionID: col.ID, Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(pages))
		})
	}
}

func TestListPages_MissingCollection(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.ListPages(context.Background(), testAuth, types.PageQuery{CollectionID: 42})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// TestListPages_MatchesModel checks the composed list against the in-memory
// filter semantics over a generated data set.
func TestListPages_MatchesModel(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	f := newFixture(t)
	props := []*types.Property{
		f.property("Int", types.TypeInt),
		f.property("Str", types.TypeString),
		f.property("Tags", types.TypeMultiString),
		f.property("Done", types.TypeBool),
	}
	words := []string{"a", "b", "c", "d"}
	gen := func(vt types.ValueType) types.Value {
		switch vt {
		case types.TypeInt:
			return types.NewInt(rng.Int64N(10))
		case types.TypeString:
			return types.NewString(words[rng.IntN(len(words))])
		case types.TypeBool:
			return types.NewBool(rng.IntN(2) == 0)
		default:
			var items []string
			for _, w := range words {
				if rng.IntN(3) == 0 {
					items = append(items, w)
				}
			}
			return types.NewMultiString(items)
		}
	}
	for i := range 40 {
		pg := f.page(fmt.Sprintf("p%02d", i))
		for _, p := range props {
			if rng.IntN(4) > 0 {
				f.set(pg, p, gen(p.Type))
			}
		}
	}
	all := f.list()

	specs := []struct {
		prop int
		kind types.FilterKind
		op   types.Operand
	}{
		{0, types.FilterInsideRange, types.Operand{Start: types.NewInt(2), End: types.NewInt(6)}},
		{1, types.FilterGreaterThan, types.Operand{Value: types.NewString("b")}},
		{2, types.FilterEquals, types.Operand{Value: types.NewMultiString([]string{"a"})}},
		{3, types.FilterIsEmpty, types.Operand{}},
	}
	var active []*types.Filter
	for _, s := range specs {
		active = append(active, f.filter(props[s.prop], s.kind, s.op))

		var want []string
		for _, pg := range all {
			keep := true
			for _, flt := range active {
				for _, pv := range pg.Properties {
					if pv.PropertyID == flt.PropertyID && !flt.Matches(pv.Value, pv.Materialized) {
						keep = false
					}
				}
			}
			if keep {
				want = append(want, pg.Title)
			}
		}
		got := titles(f.list())
		if len(want) == 0 {
			assert.Empty(t, got, "after %d filters", len(active))
			continue
		}
		assert.Equal(t, want, got, "after %d filters", len(active))
	}
}

func TestPrunePlan(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	kept := &types.Property{ID: 1, Type: types.TypeInt}
	plan := pagePlan{
		collectionID: 9,
		props:        []*types.Property{kept},
		filters: []*types.Filter{
			{ID: 10, PropertyID: 1, Type: types.TypeInt, Kind: types.FilterIsEmpty},
			{ID: 11, PropertyID: 2, Type: types.TypeInt, Kind: types.FilterIsEmpty},
			{ID: 12, PropertyID: 1, Type: types.TypeString, Kind: types.FilterIsEmpty},
		},
		sort: &types.Sort{PropertyID: 3, Direction: types.SortAscending},
	}
	filterDrops := testutil.ToFloat64(metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseFilter))
	sortDrops := testutil.ToFloat64(metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseSort))

	got := prunePlan(log, plan)

	require.Len(t, got.filters, 1)
	assert.Equal(t, int64(10), got.filters[0].ID)
	assert.Nil(t, got.sort)
	assert.Len(t, plan.filters, 3, "input plan is not modified")

	assert.Equal(t, 2, logs.FilterMessage("dropping stale filter").Len())
	assert.Equal(t, 1, logs.FilterMessage("dropping stale sort").Len())
	assert.Equal(t, filterDrops+2, testutil.ToFloat64(metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseFilter)))
	assert.Equal(t, sortDrops+1, testutil.ToFloat64(metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseSort)))
}

func TestBuildPageQuery(t *testing.T) {
	b := NewBackend()
	plan := pagePlan{
		collectionID: 4,
		props: []*types.Property{
			{ID: 1, Type: types.TypeInt},
			{ID: 2, Type: types.TypeBool},
		},
		filters: []*types.Filter{
			{PropertyID: 2, Type: types.TypeBool, Kind: types.FilterEquals, Operand: types.Operand{Value: types.NewBool(true)}},
		},
		sort: &types.Sort{PropertyID: 1, Direction: types.SortDescending},
	}

	sel, err := b.buildPageQuery(plan, pageWindow{limit: 10, offset: 20})
	require.NoError(t, err)
	stmt, args := sel.Build()

	assert.Equal(t, "SELECT page.id, page.collection_id, page.title, pv1.value, pv2.value FROM page AS page"+
		" LEFT JOIN propval_int AS pv1 ON pv1.page_id = page.id AND pv1.prop_id = ?"+
		" LEFT JOIN propval_bool AS pv2 ON pv2.page_id = page.id AND pv2.prop_id = ?"+
		" WHERE page.collection_id = ? AND pv2.value = ?"+
		" ORDER BY COALESCE(pv1.value, ?) DESC, page.id ASC LIMIT ? OFFSET ?", stmt)
	assert.Equal(t, []any{int64(1), int64(2), int64(4), int64(1), int64(0), 10, 20}, args)
}
