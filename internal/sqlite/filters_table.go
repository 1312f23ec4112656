// This file implements the filter store for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/metrics"
	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.FilterTable = (*filtersTable)(nil)

type filtersTable struct {
	backend *Backend
}

var (
	filterAlias   = query.Name("filter")
	propertyAlias = query.Name("property")
)

// List returns the collection's filters by id with their operands.
func (ft *filtersTable) List(ctx context.Context, auth types.AuthContext, collectionID int64) ([]*types.Filter, error) {
	if collectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := ft.backend.authorize(ctx, auth, collectionID); err != nil {
		return nil, err
	}

	var out []*types.Filter
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		if err := collectionExists(ctx, tx, collectionID); err != nil {
			return err
		}
		out, err = listFilters(ctx, tx, collectionID)
		return err
	})
	return out, err
}

// Get retrieves a filter by ID.
func (ft *filtersTable) Get(ctx context.Context, auth types.AuthContext, id int64) (*types.Filter, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var f *types.Filter
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		f, err = ft.backend.getFilter(ctx, tx, auth, id)
		return err
	})
	return f, err
}

// Create adds a filter on spec.PropertyID. Missing operand parts take the
// type defaults. A property already holding a filter yields ErrConflict
// and the existing filter is left as it was.
func (ft *filtersTable) Create(ctx context.Context, auth types.AuthContext, spec types.FilterSpec) (*types.Filter, error) {
	if spec.PropertyID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var f *types.Filter
	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		prop, err := getProperty(ctx, tx, spec.PropertyID)
		if err != nil {
			return err
		}
		if err := ft.backend.authorize(ctx, auth, prop.CollectionID); err != nil {
			return err
		}
		st, err := ft.backend.storeFor(prop.Type)
		if err != nil {
			return err
		}
		op, err := types.NormalizeOperand(prop.Type, spec.Kind, spec.Operand, ft.backend.now())
		if err != nil {
			return err
		}

		var existing int64
		err = tx.QueryRowContext(ctx, "SELECT id FROM filter WHERE prop_id = ?", prop.ID).Scan(&existing)
		switch {
		case err == nil:
			return filterConflict(prop.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return storeErr("checking filter", err)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO filter (prop_id, kind, value_type) VALUES (?, ?, ?)",
			prop.ID, int(spec.Kind), int(prop.Type),
		)
		if isUniqueViolation(err) {
			return filterConflict(prop.ID)
		}
		if err != nil {
			return storeErr("inserting filter", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return storeErr("reading filter id", err)
		}
		if err := st.putOperand(ctx, tx, id, spec.Kind, op); err != nil {
			return err
		}
		f = &types.Filter{ID: id, PropertyID: prop.ID, Type: prop.Type, Kind: spec.Kind, Operand: op}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ft.backend.logger(ctx, auth).Debug("filter created",
		zap.Int64("filter_id", f.ID),
		zap.Int64("property_id", f.PropertyID),
		zap.Stringer("kind", f.Kind),
	)
	return f, nil
}

func filterConflict(propID int64) error {
	metrics.FilterConflictsTotal.Inc()
	return fmt.Errorf("filter on property %d: %w", propID, types.ErrConflict)
}

// Update replaces the kind and operand of a filter. The operand moves
// between the single and range tables when the kind changes form.
func (ft *filtersTable) Update(ctx context.Context, auth types.AuthContext, id int64, kind types.FilterKind, op types.Operand) (*types.Filter, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var f *types.Filter
	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		cur, err := ft.backend.getFilter(ctx, tx, auth, id)
		if err != nil {
			return err
		}
		st, err := ft.backend.storeFor(cur.Type)
		if err != nil {
			return err
		}
		op, err := types.NormalizeOperand(cur.Type, kind, op, ft.backend.now())
		if err != nil {
			return err
		}
		if err := st.clearOperand(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE filter SET kind = ? WHERE id = ?", int(kind), id); err != nil {
			return storeErr("updating filter", err)
		}
		if err := st.putOperand(ctx, tx, id, kind, op); err != nil {
			return err
		}
		cur.Kind, cur.Operand = kind, op
		f = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a filter and its operands.
func (ft *filtersTable) Delete(ctx context.Context, auth types.AuthContext, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return err
	}
	defer release()

	return inTx(ctx, db, nil, func(tx *sql.Tx) error {
		if _, err := ft.backend.getFilter(ctx, tx, auth, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM filter WHERE id = ?", id)
		if err != nil {
			return storeErr("deleting filter", err)
		}
		return expectAffected(res, "filter", id)
	})
}

// Available lists the collection's properties that have no filter, in
// registry order.
func (ft *filtersTable) Available(ctx context.Context, auth types.AuthContext, collectionID int64) ([]*types.Property, error) {
	if collectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ft.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := ft.backend.authorize(ctx, auth, collectionID); err != nil {
		return nil, err
	}

	var out []*types.Property
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		out, err = availableProperties(ctx, tx, collectionID)
		return err
	})
	return out, err
}

// HasCapacity reports whether some property of the collection can still
// take a filter.
func (ft *filtersTable) HasCapacity(ctx context.Context, auth types.AuthContext, collectionID int64) (bool, error) {
	props, err := ft.Available(ctx, auth, collectionID)
	if err != nil {
		return false, err
	}
	return len(props) > 0, nil
}

func availableProperties(ctx context.Context, q querier, collectionID int64) ([]*types.Property, error) {
	if err := collectionExists(ctx, q, collectionID); err != nil {
		return nil, err
	}
	props, err := listProperties(ctx, q, collectionID, nil)
	if err != nil {
		return nil, err
	}
	filters, err := listFilters(ctx, q, collectionID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int64]bool, len(filters))
	for _, f := range filters {
		taken[f.PropertyID] = true
	}
	out := props[:0:0]
	for _, p := range props {
		if !taken[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// getFilter loads filter id and checks that auth may act on its collection.
func (b *Backend) getFilter(ctx context.Context, q querier, auth types.AuthContext, id int64) (*types.Filter, error) {
	var collectionID int64
	if err := q.QueryRowContext(ctx,
		"SELECT p.collection_id FROM filter AS f JOIN property AS p ON p.id = f.prop_id WHERE f.id = ?", id,
	).Scan(&collectionID); err != nil {
		return nil, notFound("filter", id, err)
	}
	if err := b.authorize(ctx, auth, collectionID); err != nil {
		return nil, err
	}
	filters, err := queryFilters(ctx, q, query.Compare(filterAlias.Col("id"), query.Eq, id))
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("filter %d: %w", id, types.ErrNotFound)
	}
	return filters[0], nil
}

// listFilters returns every filter of a collection with its operand.
func listFilters(ctx context.Context, q querier, collectionID int64) ([]*types.Filter, error) {
	return queryFilters(ctx, q, query.Compare(propertyAlias.Col("collection_id"), query.Eq, collectionID))
}

// operandStores fixes the column order of the filter listing query.
var operandStores = func() []typedStore {
	all := newTypedStores()
	out := make([]typedStore, 0, len(all))
	for _, st := range all {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].valueType() < out[j].valueType() })
	return out
}()

// queryFilters loads the filters matching where in two statements: one
// joining every scalar operand table, one for multi-string operand items.
func queryFilters(ctx context.Context, q querier, where query.Cond) ([]*types.Filter, error) {
	sel := query.From(filterAlias, filterAlias).
		Columns(filterAlias.Col("id"), filterAlias.Col("prop_id"), filterAlias.Col("kind"), filterAlias.Col("value_type")).
		Join(propertyAlias, propertyAlias, query.ColumnsEqual(propertyAlias.Col("id"), filterAlias.Col("prop_id")))
	for _, st := range operandStores {
		st.joinOperands(sel, filterAlias)
	}
	sel.Where(where).OrderBy(filterAlias.Col("id"), query.Asc)
	stmt, args := sel.Build()

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeErr("listing filters", err)
	}
	defer rows.Close()

	var (
		out   []*types.Filter
		multi []*types.Filter
	)
	for rows.Next() {
		var (
			f        types.Filter
			kindCode int
			typeCode int
		)
		scanners := make([]operandScanner, len(operandStores))
		dest := []any{&f.ID, &f.PropertyID, &kindCode, &typeCode}
		for i, st := range operandStores {
			scanners[i] = st.newOperandScanner()
			dest = append(dest, scanners[i].dests()...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, storeErr("scanning filter", err)
		}

		if f.Kind, err = types.FilterKindFromCode(kindCode); err != nil {
			return nil, storeErr("scanning filter", err)
		}
		if f.Type, err = types.ValueTypeFromCode(typeCode); err != nil {
			return nil, storeErr("scanning filter", err)
		}
		for i, st := range operandStores {
			if st.valueType() != f.Type {
				continue
			}
			if f.Operand, err = scanners[i].result(f.Kind); err != nil {
				return nil, fmt.Errorf("filter %d: %w", f.ID, err)
			}
		}
		out = append(out, &f)
		if f.Type == types.TypeMultiString && f.Kind.HasOperand() {
			multi = append(multi, &f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listing filters", err)
	}
	rows.Close()

	if len(multi) > 0 {
		if err := fillMultiStringOperands(ctx, q, multi); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fillMultiStringOperands(ctx context.Context, q querier, filters []*types.Filter) error {
	ids := make([]any, len(filters))
	for i, f := range filters {
		ids[i] = f.ID
	}
	items := query.Name("item")
	stmt, args := query.From(query.Name("filter_multistring"), items).
		Columns(items.Col("filter_id"), items.Col("value")).
		Where(query.In(items.Col("filter_id"), ids...)).
		OrderBy(items.Col("filter_id"), query.Asc).
		OrderBy(items.Col("position"), query.Asc).
		Build()

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return storeErr("reading filter_multistring", err)
	}
	defer rows.Close()

	byFilter := make(map[int64][]string, len(filters))
	for rows.Next() {
		var (
			id   int64
			item string
		)
		if err := rows.Scan(&id, &item); err != nil {
			return storeErr("scanning filter_multistring", err)
		}
		byFilter[id] = append(byFilter[id], item)
	}
	if err := rows.Err(); err != nil {
		return storeErr("reading filter_multistring", err)
	}
	for _, f := range filters {
		f.Operand = types.Operand{Value: types.NewMultiString(byFilter[f.ID])}
	}
	return nil
}
