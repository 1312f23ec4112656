package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Single-operand kinds map onto one comparison operator.
var kindOps = map[types.FilterKind]query.Op{
	types.FilterEquals:      query.Eq,
	types.FilterNotEquals:   query.Neq,
	types.FilterGreaterThan: query.Gt,
	types.FilterLessThan:    query.Lt,
}

// predicate compares the stored value; a page without a value row only
// matches IsEmpty.
func (s *scalarStore[T, S]) predicate(_, alias query.Ident, f *types.Filter) []query.Cond {
	col := alias.Col("value")
	switch f.Kind {
	case types.FilterIsEmpty:
		return []query.Cond{query.IsNull(col)}
	case types.FilterInsideRange:
		return []query.Cond{query.Between(col, s.arg(f.Operand.Start), s.arg(f.Operand.End))}
	case types.FilterNotInsideRange:
		return []query.Cond{query.NotBetween(col, s.arg(f.Operand.Start), s.arg(f.Operand.End))}
	default:
		op, ok := kindOps[f.Kind]
		if !ok {
			return nil
		}
		return []query.Cond{query.Compare(col, op, s.arg(f.Operand.Value))}
	}
}

func (s *scalarStore[T, S]) putOperand(ctx context.Context, q querier, filterID int64, kind types.FilterKind, op types.Operand) error {
	switch {
	case !kind.HasOperand():
		return nil
	case kind.IsRange():
		if !s.codec.hasRange {
			return fmt.Errorf("%w: %s filters have no range form", types.ErrInvalidFilter, s.codec.vt)
		}
		if _, err := q.ExecContext(ctx, s.insertRange, filterID, s.arg(op.Start), s.arg(op.End)); err != nil {
			return storeErr("inserting range operand", err)
		}
	default:
		if _, err := q.ExecContext(ctx, s.insertSingle, filterID, s.arg(op.Value)); err != nil {
			return storeErr("inserting operand", err)
		}
	}
	return nil
}

func (s *scalarStore[T, S]) joinOperands(sel *query.Select, filter query.Ident) {
	single := query.Name("fo_" + s.codec.suffix)
	sel.Columns(single.Col("value")).LeftJoin(s.singleTable, single,
		query.ColumnsEqual(single.Col("filter_id"), filter.Col("id")))
	if !s.codec.hasRange {
		return
	}
	ranged := query.Name("fr_" + s.codec.suffix)
	sel.Columns(ranged.Col("range_start"), ranged.Col("range_end")).LeftJoin(s.rangeTable, ranged,
		query.ColumnsEqual(ranged.Col("filter_id"), filter.Col("id")))
}

type scalarOperandScanner[T, S any] struct {
	store              *scalarStore[T, S]
	single, start, end sql.Null[S]
}

func (s *scalarStore[T, S]) newOperandScanner() operandScanner {
	return &scalarOperandScanner[T, S]{store: s}
}

func (sc *scalarOperandScanner[T, S]) dests() []any {
	if sc.store.codec.hasRange {
		return []any{&sc.single, &sc.start, &sc.end}
	}
	return []any{&sc.single}
}

func (sc *scalarOperandScanner[T, S]) result(kind types.FilterKind) (types.Operand, error) {
	switch {
	case !kind.HasOperand():
		return types.Operand{}, nil
	case kind.IsRange():
		if !sc.start.Valid || !sc.end.Valid {
			return types.Operand{}, fmt.Errorf("%w: range operand missing", types.ErrStore)
		}
		start, err := sc.store.fromColumn(sc.start.V)
		if err != nil {
			return types.Operand{}, err
		}
		end, err := sc.store.fromColumn(sc.end.V)
		if err != nil {
			return types.Operand{}, err
		}
		return types.Operand{Start: start, End: end}, nil
	default:
		if !sc.single.Valid {
			return types.Operand{}, fmt.Errorf("%w: operand missing", types.ErrStore)
		}
		v, err := sc.store.fromColumn(sc.single.V)
		if err != nil {
			return types.Operand{}, err
		}
		return types.Operand{Value: v}, nil
	}
}

// clearOperand removes the operand from both the single and range tables,
// so a kind change can move it between them.
func (s *scalarStore[T, S]) clearOperand(ctx context.Context, q querier, filterID int64) error {
	if _, err := q.ExecContext(ctx, s.deleteSingle, filterID); err != nil {
		return storeErr("clearing operand", err)
	}
	if s.codec.hasRange {
		if _, err := q.ExecContext(ctx, s.deleteRange, filterID); err != nil {
			return storeErr("clearing range operand", err)
		}
	}
	return nil
}
