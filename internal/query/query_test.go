package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameRejectsUnsafeIdentifiers(t *testing.T) {
	for _, bad := range []string{"", "Page", "page; DROP TABLE page", "pv-1", "1pv", `"x"`} {
		t.Run(bad, func(t *testing.T) {
			assert.Panics(t, func() { Name(bad) })
		})
	}
	assert.Equal(t, "propval_int", Name("propval_int").String())
}

func TestNumberedAlias(t *testing.T) {
	assert.Equal(t, "pv42", NumberedAlias("pv", 42).String())
	assert.Panics(t, func() { NumberedAlias("pv", 0) })
	assert.Panics(t, func() { NumberedAlias("PV", 1) })
}

func TestSelectBuild(t *testing.T) {
	page := Name("page")
	pv3 := NumberedAlias("pv", 3)
	pv5 := NumberedAlias("pv", 5)

	tests := []struct {
		name     string
		build    func() *Select
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "bare select",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id"), page.Col("title"))
			},
			wantSQL: "SELECT page.id, page.title FROM page AS page",
		},
		{
			name: "left joins bind property ids before where args",
			build: func() *Select {
				return From(page, page).
					Columns(page.Col("id"), pv3.Col("value"), pv5.Col("value")).
					LeftJoin(Name("propval_int"), pv3,
						ColumnsEqual(pv3.Col("page_id"), page.Col("id")),
						Compare(pv3.Col("prop_id"), Eq, int64(3))).
					LeftJoin(Name("propval_bool"), pv5,
						ColumnsEqual(pv5.Col("page_id"), page.Col("id")),
						Compare(pv5.Col("prop_id"), Eq, int64(5))).
					Where(
						Compare(page.Col("collection_id"), Eq, int64(1)),
						Compare(pv5.Col("value"), Eq, true),
					).
					OrderBy(pv3.Col("value"), Asc).
					OrderBy(page.Col("id"), Asc)
			},
			wantSQL: "SELECT page.id, pv3.value, pv5.value FROM page AS page" +
				" LEFT JOIN propval_int AS pv3 ON pv3.page_id = page.id AND pv3.prop_id = ?" +
				" LEFT JOIN propval_bool AS pv5 ON pv5.page_id = page.id AND pv5.prop_id = ?" +
				" WHERE page.collection_id = ? AND pv5.value = ?" +
				" ORDER BY pv3.value ASC, page.id ASC",
			wantArgs: []any{int64(3), int64(5), int64(1), true},
		},
		{
			name: "range and null predicates",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).Where(
					Between(pv3.Col("value"), 0, 10),
					NotBetween(pv5.Col("value"), 1.5, 2.5),
					IsNull(pv3.Col("value")),
					IsNotNull(pv5.Col("value")),
				)
			},
			wantSQL: "SELECT page.id FROM page AS page WHERE pv3.value BETWEEN ? AND ?" +
				" AND pv5.value NOT BETWEEN ? AND ? AND pv3.value IS NULL AND pv5.value IS NOT NULL",
			wantArgs: []any{0, 10, 1.5, 2.5},
		},
		{
			name: "exists sub-select",
			build: func() *Select {
				item := NumberedAlias("pvi", 3)
				sub := From(Name("propval_multistring_item"), item).Columns(One).Where(
					ColumnsEqual(item.Col("page_id"), page.Col("id")),
					Compare(item.Col("prop_id"), Eq, int64(3)),
					In(item.Col("value"), "a", "b"),
				)
				return From(page, page).Columns(page.Col("id")).Where(
					Compare(page.Col("collection_id"), Eq, int64(1)),
					NotExists(sub),
				)
			},
			wantSQL: "SELECT page.id FROM page AS page WHERE page.collection_id = ?" +
				" AND NOT EXISTS (SELECT 1 FROM propval_multistring_item AS pvi3" +
				" WHERE pvi3.page_id = page.id AND pvi3.prop_id = ? AND pvi3.value IN (?, ?))",
			wantArgs: []any{int64(1), int64(3), "a", "b"},
		},
		{
			name: "limit and offset are bound",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).
					OrderBy(page.Col("id"), Desc).Limit(20).Offset(40)
			},
			wantSQL:  "SELECT page.id FROM page AS page ORDER BY page.id DESC LIMIT ? OFFSET ?",
			wantArgs: []any{20, 40},
		},
		{
			name: "negative limit drops the clause",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).Limit(-1)
			},
			wantSQL: "SELECT page.id FROM page AS page",
		},
		{
			name: "offset without limit",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).Limit(-1).Offset(5)
			},
			wantSQL:  "SELECT page.id FROM page AS page LIMIT -1 OFFSET ?",
			wantArgs: []any{5},
		},
		{
			name: "order by coalesced value binds the fallback after where args",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).
					Where(Compare(page.Col("collection_id"), Eq, int64(1))).
					OrderBy(Coalesce(pv3.Col("value"), int64(0)), Desc).
					OrderBy(page.Col("id"), Asc).
					Limit(10)
			},
			wantSQL: "SELECT page.id FROM page AS page WHERE page.collection_id = ?" +
				" ORDER BY COALESCE(pv3.value, ?) DESC, page.id ASC LIMIT ?",
			wantArgs: []any{int64(1), int64(0), 10},
		},
		{
			name: "nested and",
			build: func() *Select {
				return From(page, page).Columns(page.Col("id")).Where(
					And(Compare(pv3.Col("value"), Gt, 1), Compare(pv3.Col("value"), Lt, 5)),
				)
			},
			wantSQL:  "SELECT page.id FROM page AS page WHERE (pv3.value > ? AND pv3.value < ?)",
			wantArgs: []any{1, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build().Build()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestComparePanicsOnUnknownOperator(t *testing.T) {
	assert.Panics(t, func() { Compare(Name("page").Col("id"), Op(99), 1) })
}

func TestInPanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() { In(Name("page").Col("id")) })
}
