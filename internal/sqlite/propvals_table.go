// This file implements per-type value storage. One generic scalarStore is
// instantiated per scalar value type; multi-string values have their own
// store in multistring_table.go. Both satisfy typedStore.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// typedStore is the storage of one value type: its value table, the column
// scanner the composer uses, and its filter operand tables.
type typedStore interface {
	valueType() types.ValueType
	valueTable() query.Ident

	getValue(ctx context.Context, q querier, pageID, propID int64) (types.Value, bool, error)
	putValue(ctx context.Context, q querier, pageID, propID int64, v types.Value) error
	newScanner() valueScanner
	sortFallback() any

	// predicate translates f into WHERE conditions over alias, the joined
	// value table of the filtered property.
	predicate(page, alias query.Ident, f *types.Filter) []query.Cond

	// joinOperands adds this type's operand tables to a filter listing
	// query over the filter table aliased as filter.
	joinOperands(sel *query.Select, filter query.Ident)
	newOperandScanner() operandScanner
	putOperand(ctx context.Context, q querier, filterID int64, kind types.FilterKind, op types.Operand) error
	clearOperand(ctx context.Context, q querier, filterID int64) error
}

// operandScanner receives the operand columns joinOperands added.
type operandScanner interface {
	dests() []any
	result(kind types.FilterKind) (types.Operand, error)
}

// valueScanner receives one value column of a composed row.
type valueScanner interface {
	dest() any
	// result returns the scanned value and whether a row was joined.
	result() (types.Value, bool, error)
}

// scalarCodec maps a Go payload type T to the column type S it is stored as.
type scalarCodec[T, S any] struct {
	vt       types.ValueType
	suffix   string
	hasRange bool
	unwrap   func(types.Value) T
	wrap     func(T) types.Value
	encode   func(T) S
	decode   func(S) (T, error)
}

// scalarStore stores one scalar value type.
type scalarStore[T, S any] struct {
	codec scalarCodec[T, S]
	table query.Ident

	singleTable query.Ident
	rangeTable  query.Ident

	selectValue   string
	upsertValue   string
	deleteValue   string
	insertSingle  string
	deleteSingle  string
	insertRange   string
	deleteRange   string
	fallbackValue any
}

func newScalarStore[T, S any](c scalarCodec[T, S]) *scalarStore[T, S] {
	table := "propval_" + c.suffix
	single := "filter_" + c.suffix
	ranged := single + "_range"
	s := &scalarStore[T, S]{
		codec:       c,
		table:       query.Name(table),
		singleTable: query.Name(single),
		selectValue: "SELECT value FROM " + table + " WHERE page_id = ? AND prop_id = ?",
		upsertValue: "INSERT INTO " + table + " (page_id, prop_id, value) VALUES (?, ?, ?) " +
			"ON CONFLICT(page_id, prop_id) DO UPDATE SET value = excluded.value",
		deleteValue:  "DELETE FROM " + table + " WHERE page_id = ? AND prop_id = ?",
		insertSingle: "INSERT INTO " + single + " (filter_id, value) VALUES (?, ?)",
		deleteSingle: "DELETE FROM " + single + " WHERE filter_id = ?",
	}
	if c.hasRange {
		s.rangeTable = query.Name(ranged)
		s.insertRange = "INSERT INTO " + ranged + " (filter_id, range_start, range_end) VALUES (?, ?, ?)"
		s.deleteRange = "DELETE FROM " + ranged + " WHERE filter_id = ?"
	}
	if def, err := types.DefaultValue(c.vt); err == nil && !def.IsNull() {
		s.fallbackValue = c.encode(c.unwrap(def))
	}
	return s
}

func (s *scalarStore[T, S]) valueType() types.ValueType { return s.codec.vt }

func (s *scalarStore[T, S]) valueTable() query.Ident { return s.table }

func (s *scalarStore[T, S]) sortFallback() any { return s.fallbackValue }

// arg encodes v as the column value bound into statements.
func (s *scalarStore[T, S]) arg(v types.Value) S {
	return s.codec.encode(s.codec.unwrap(v))
}

func (s *scalarStore[T, S]) fromColumn(col S) (types.Value, error) {
	t, err := s.codec.decode(col)
	if err != nil {
		return types.Value{}, fmt.Errorf("%w: decoding %s column: %w", types.ErrStore, s.codec.vt, err)
	}
	return s.codec.wrap(t), nil
}

func (s *scalarStore[T, S]) getValue(ctx context.Context, q querier, pageID, propID int64) (types.Value, bool, error) {
	var col S
	err := q.QueryRowContext(ctx, s.selectValue, pageID, propID).Scan(&col)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Value{}, false, nil
	}
	if err != nil {
		return types.Value{}, false, storeErr("reading "+s.table.String(), err)
	}
	v, err := s.fromColumn(col)
	return v, err == nil, err
}

// putValue upserts v. A null temporal value removes the row, so the pair
// reads as never written.
func (s *scalarStore[T, S]) putValue(ctx context.Context, q querier, pageID, propID int64, v types.Value) error {
	if v.Type() != s.codec.vt {
		return fmt.Errorf("%w: %s value for %s property", types.ErrTypeMismatch, v.Type(), s.codec.vt)
	}
	if v.IsNull() {
		if _, err := q.ExecContext(ctx, s.deleteValue, pageID, propID); err != nil {
			return storeErr("clearing "+s.table.String(), err)
		}
		return nil
	}
	if _, err := q.ExecContext(ctx, s.upsertValue, pageID, propID, s.arg(v)); err != nil {
		return storeErr("upserting "+s.table.String(), err)
	}
	return nil
}

type scalarScanner[T, S any] struct {
	store *scalarStore[T, S]
	col   sql.Null[S]
}

func (s *scalarStore[T, S]) newScanner() valueScanner {
	return &scalarScanner[T, S]{store: s}
}

func (sc *scalarScanner[T, S]) dest() any { return &sc.col }

func (sc *scalarScanner[T, S]) result() (types.Value, bool, error) {
	if !sc.col.Valid {
		return types.Value{}, false, nil
	}
	v, err := sc.store.fromColumn(sc.col.V)
	return v, err == nil, err
}

const datetimeStorageLayout = "2006-01-02T15:04:05.000000000Z"

// Codecs for the scalar value types.
var (
	boolCodec = scalarCodec[bool, int64]{
		vt: types.TypeBool, suffix: "bool",
		unwrap: types.Value.Bool, wrap: types.NewBool,
		encode: func(b bool) int64 {
			if b {
				return 1
			}
			return 0
		},
		decode: func(i int64) (bool, error) { return i != 0, nil },
	}

	intCodec = scalarCodec[int64, int64]{
		vt: types.TypeInt, suffix: "int", hasRange: true,
		unwrap: types.Value.Int, wrap: types.NewInt,
		encode: identity[int64], decode: decodeIdentity[int64],
	}

	floatCodec = scalarCodec[float64, float64]{
		vt: types.TypeFloat, suffix: "float", hasRange: true,
		unwrap: types.Value.Float, wrap: types.NewFloat,
		encode: identity[float64], decode: decodeIdentity[float64],
	}

	stringCodec = scalarCodec[string, string]{
		vt: types.TypeString, suffix: "string",
		unwrap: types.Value.Str, wrap: types.NewString,
		encode: identity[string], decode: decodeIdentity[string],
	}

	// Dates are stored as YYYY-MM-DD text, which orders chronologically.
	dateCodec = scalarCodec[time.Time, string]{
		vt: types.TypeDate, suffix: "date", hasRange: true,
		unwrap: types.Value.Time, wrap: types.NewDate,
		encode: func(t time.Time) string { return t.Format(types.DateLayout) },
		decode: func(s string) (time.Time, error) { return time.Parse(types.DateLayout, s) },
	}

	// Datetimes are stored as fixed-width UTC text with nanoseconds, which
	// orders chronologically for years 0000 through 9999.
	datetimeCodec = scalarCodec[time.Time, string]{
		vt: types.TypeDatetime, suffix: "datetime", hasRange: true,
		unwrap: types.Value.Time, wrap: types.NewDatetime,
		encode: func(t time.Time) string { return t.UTC().Format(datetimeStorageLayout) },
		decode: func(s string) (time.Time, error) { return time.Parse(datetimeStorageLayout, s) },
	}
)

func identity[T any](v T) T { return v }

func decodeIdentity[T any](v T) (T, error) { return v, nil }

// newTypedStores builds the dispatch table from value type to store.
func newTypedStores() map[types.ValueType]typedStore {
	stores := []typedStore{
		newScalarStore(boolCodec),
		newScalarStore(intCodec),
		newScalarStore(floatCodec),
		newScalarStore(stringCodec),
		newScalarStore(dateCodec),
		newScalarStore(datetimeCodec),
		newMultiStringStore(),
	}
	m := make(map[types.ValueType]typedStore, len(stores))
	for _, s := range stores {
		m[s.valueType()] = s
	}
	return m
}

// storeFor returns the store of vt.
func (b *Backend) storeFor(vt types.ValueType) (typedStore, error) {
	s, ok := b.stores[vt]
	if !ok {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidValueType, int(vt))
	}
	return s, nil
}
