package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ typedStore = (*multiStringStore)(nil)

// multiStringStore keeps the item count of a multi-string value in
// propval_multistring and the items, in order, in propval_multistring_item.
// Sorting on a multi-string property orders by item count.
type multiStringStore struct {
	table     query.Ident
	itemTable query.Ident
}

func newMultiStringStore() *multiStringStore {
	return &multiStringStore{
		table:     query.Name("propval_multistring"),
		itemTable: query.Name("propval_multistring_item"),
	}
}

func (s *multiStringStore) valueType() types.ValueType { return types.TypeMultiString }

func (s *multiStringStore) valueTable() query.Ident { return s.table }

func (s *multiStringStore) sortFallback() any { return int64(0) }

func (s *multiStringStore) getValue(ctx context.Context, q querier, pageID, propID int64) (types.Value, bool, error) {
	var count int64
	err := q.QueryRowContext(ctx,
		"SELECT value FROM propval_multistring WHERE page_id = ? AND prop_id = ?",
		pageID, propID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Value{}, false, nil
	}
	if err != nil {
		return types.Value{}, false, storeErr("reading propval_multistring", err)
	}

	items, err := queryStrings(ctx, q,
		"SELECT value FROM propval_multistring_item WHERE page_id = ? AND prop_id = ? ORDER BY position",
		pageID, propID,
	)
	if err != nil {
		return types.Value{}, false, storeErr("reading propval_multistring_item", err)
	}
	return types.NewMultiString(items), true, nil
}

// putValue replaces the stored list. The caller runs it inside a
// transaction so count and items change together.
func (s *multiStringStore) putValue(ctx context.Context, q querier, pageID, propID int64, v types.Value) error {
	if v.Type() != types.TypeMultiString {
		return fmt.Errorf("%w: %s value for multistring property", types.ErrTypeMismatch, v.Type())
	}
	items := v.Items()
	if _, err := q.ExecContext(ctx,
		"INSERT INTO propval_multistring (page_id, prop_id, value) VALUES (?, ?, ?) "+
			"ON CONFLICT(page_id, prop_id) DO UPDATE SET value = excluded.value",
		pageID, propID, len(items),
	); err != nil {
		return storeErr("upserting propval_multistring", err)
	}
	if _, err := q.ExecContext(ctx,
		"DELETE FROM propval_multistring_item WHERE page_id = ? AND prop_id = ?",
		pageID, propID,
	); err != nil {
		return storeErr("clearing propval_multistring_item", err)
	}
	for i, item := range items {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO propval_multistring_item (page_id, prop_id, position, value) VALUES (?, ?, ?, ?)",
			pageID, propID, i, item,
		); err != nil {
			return storeErr("inserting propval_multistring_item", err)
		}
	}
	return nil
}

// multiStringScanner only reports whether a row was joined; the composer
// fills the items from one bulk item query.
type multiStringScanner struct {
	count sql.NullInt64
}

func (s *multiStringStore) newScanner() valueScanner { return &multiStringScanner{} }

func (sc *multiStringScanner) dest() any { return &sc.count }

func (sc *multiStringScanner) result() (types.Value, bool, error) {
	if !sc.count.Valid {
		return types.Value{}, false, nil
	}
	return types.NewMultiString(nil), true, nil
}

// predicate: Equals matches lists containing every operand item, NotEquals
// lists containing none of them. Both require a stored list.
func (s *multiStringStore) predicate(page, alias query.Ident, f *types.Filter) []query.Cond {
	if f.Kind == types.FilterIsEmpty {
		return []query.Cond{query.IsNull(alias.Col("value"))}
	}

	conds := []query.Cond{query.IsNotNull(alias.Col("value"))}
	want := f.Operand.Value.Items()
	if len(want) == 0 {
		return conds
	}
	items := query.NumberedAlias("pvi", f.PropertyID)
	sub := func(extra query.Cond) *query.Select {
		return query.From(s.itemTable, items).Columns(query.One).Where(
			query.ColumnsEqual(items.Col("page_id"), page.Col("id")),
			query.Compare(items.Col("prop_id"), query.Eq, f.PropertyID),
			extra,
		)
	}

	switch f.Kind {
	case types.FilterEquals:
		for _, w := range want {
			conds = append(conds, query.Exists(sub(query.Compare(items.Col("value"), query.Eq, w))))
		}
	case types.FilterNotEquals:
		args := make([]any, len(want))
		for i, w := range want {
			args[i] = w
		}
		conds = append(conds, query.NotExists(sub(query.In(items.Col("value"), args...))))
	}
	return conds
}

func (s *multiStringStore) putOperand(ctx context.Context, q querier, filterID int64, kind types.FilterKind, op types.Operand) error {
	if !kind.HasOperand() {
		return nil
	}
	for i, item := range op.Value.Items() {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO filter_multistring (filter_id, position, value) VALUES (?, ?, ?)",
			filterID, i, item,
		); err != nil {
			return storeErr("inserting filter_multistring", err)
		}
	}
	return nil
}

// Multi-string operands span several rows; listFilters loads their items
// with one extra query, so nothing is joined here.
func (s *multiStringStore) joinOperands(*query.Select, query.Ident) {}

type multiStringOperandScanner struct{}

func (s *multiStringStore) newOperandScanner() operandScanner { return multiStringOperandScanner{} }

func (multiStringOperandScanner) dests() []any { return nil }

func (multiStringOperandScanner) result(kind types.FilterKind) (types.Operand, error) {
	if !kind.HasOperand() {
		return types.Operand{}, nil
	}
	return types.Operand{Value: types.NewMultiString(nil)}, nil
}

func (s *multiStringStore) clearOperand(ctx context.Context, q querier, filterID int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM filter_multistring WHERE filter_id = ?", filterID); err != nil {
		return storeErr("clearing filter_multistring", err)
	}
	return nil
}

// queryStrings runs a single-column query and collects the results.
func queryStrings(ctx context.Context, q querier, stmt string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
