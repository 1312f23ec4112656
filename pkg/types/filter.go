package types

import (
	"fmt"
	"slices"
	"time"
)

// Operand is the comparison argument of a filter. Single-operand kinds use
// Value, range kinds use Start and End, IsEmpty uses nothing. A zero Value
// means "not provided".
type Operand struct {
	Value Value `json:"value"`
	Start Value `json:"start"`
	End   Value `json:"end"`
}

// Filter is a predicate over one property's values. A property has at most
// one filter.
type Filter struct {
	ID         int64      `json:"id"`
	PropertyID int64      `json:"property_id"`
	Type       ValueType  `json:"type"`
	Kind       FilterKind `json:"kind"`
	Operand    Operand    `json:"operand"`
}

// FilterSpec is the input of FilterTable.Create.
type FilterSpec struct {
	PropertyID int64
	Kind       FilterKind
	Operand    Operand
}

// Default range width for numeric and temporal filters.
const (
	defaultRangeSpan = 10
	defaultDaySpan   = 10 * 24 * time.Hour
)

// supportedKinds lists the filter kinds accepted per value type.
var supportedKinds = map[ValueType][]FilterKind{
	TypeBool:        {FilterEquals, FilterNotEquals, FilterIsEmpty},
	TypeString:      {FilterEquals, FilterNotEquals, FilterGreaterThan, FilterLessThan, FilterIsEmpty},
	TypeMultiString: {FilterEquals, FilterNotEquals, FilterIsEmpty},
	TypeInt:         allKinds(),
	TypeFloat:       allKinds(),
	TypeDate:        allKinds(),
	TypeDatetime:    allKinds(),
}

func allKinds() []FilterKind {
	kinds := make([]FilterKind, 0, len(FilterKindCodes))
	for _, c := range FilterKindCodes {
		kinds = append(kinds, FilterKind(c.Code))
	}
	return kinds
}

// SupportedFilterKinds returns the kinds a filter on a vt property may use,
// in code order.
func SupportedFilterKinds(vt ValueType) []FilterKind {
	return slices.Clone(supportedKinds[vt])
}

// SupportsFilterKind reports whether kind is valid for a vt property.
func SupportsFilterKind(vt ValueType, kind FilterKind) bool {
	return slices.Contains(supportedKinds[vt], kind)
}

// DefaultOperand returns the operand a new filter gets when the caller
// provides none. now anchors the temporal defaults.
func DefaultOperand(vt ValueType, kind FilterKind, now time.Time) (Operand, error) {
	if !SupportsFilterKind(vt, kind) {
		return Operand{}, fmt.Errorf("%w: %s does not support %s", ErrInvalidFilter, vt, kind)
	}
	if !kind.HasOperand() {
		return Operand{}, nil
	}
	if kind.IsRange() {
		start, end := defaultRange(vt, now)
		return Operand{Start: start, End: end}, nil
	}
	return Operand{Value: defaultSingle(vt, now)}, nil
}

func defaultSingle(vt ValueType, now time.Time) Value {
	switch vt {
	case TypeDate:
		return NewDate(now)
	case TypeDatetime:
		return NewDatetime(now)
	default:
		v, _ := DefaultValue(vt)
		return v
	}
}

func defaultRange(vt ValueType, now time.Time) (Value, Value) {
	switch vt {
	case TypeInt:
		return NewInt(0), NewInt(defaultRangeSpan)
	case TypeFloat:
		return NewFloat(0), NewFloat(defaultRangeSpan)
	case TypeDate:
		return NewDate(now.Add(-defaultDaySpan)), NewDate(now)
	default:
		return NewDatetime(now.Add(-defaultDaySpan)), NewDatetime(now)
	}
}

// NormalizeOperand validates op against a filter of kind on a vt property and
// fills missing parts with defaults. It returns ErrInvalidFilter for an
// unsupported kind or an inverted range and ErrTypeMismatch for operands of
// the wrong type.
func NormalizeOperand(vt ValueType, kind FilterKind, op Operand, now time.Time) (Operand, error) {
	def, err := DefaultOperand(vt, kind, now)
	if err != nil {
		return Operand{}, err
	}
	if !kind.HasOperand() {
		return Operand{}, nil
	}
	if kind.IsRange() {
		start, err := pickOperand(vt, op.Start, def.Start)
		if err != nil {
			return Operand{}, err
		}
		end, err := pickOperand(vt, op.End, def.End)
		if err != nil {
			return Operand{}, err
		}
		if start.Compare(end) > 0 {
			return Operand{}, fmt.Errorf("%w: range start %s is after end %s", ErrInvalidFilter, start, end)
		}
		return Operand{Start: start, End: end}, nil
	}
	v, err := pickOperand(vt, op.Value, def.Value)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Value: v}, nil
}

func pickOperand(vt ValueType, given, fallback Value) (Value, error) {
	if given.IsZero() {
		return fallback, nil
	}
	if given.Type() != vt {
		return Value{}, fmt.Errorf("%w: operand is %s, property is %s", ErrTypeMismatch, given.Type(), vt)
	}
	if given.IsNull() {
		return Value{}, fmt.Errorf("%w: operand must not be null", ErrInvalidFilter)
	}
	if err := given.Check(); err != nil {
		return Value{}, fmt.Errorf("filter operand: %w", err)
	}
	return given, nil
}

// Matches evaluates the filter against v, the value a page holds for the
// property. materialized is false when the page has no value row. The
// predicate mirrors the one the query composer emits.
func (f Filter) Matches(v Value, materialized bool) bool {
	if f.Kind == FilterIsEmpty {
		return !materialized
	}
	if !materialized || v.IsNull() {
		return false
	}
	if f.Type == TypeMultiString {
		items := v.Items()
		want := f.Operand.Value.Items()
		switch f.Kind {
		case FilterEquals:
			for _, w := range want {
				if !slices.Contains(items, w) {
					return false
				}
			}
			return true
		case FilterNotEquals:
			for _, w := range want {
				if slices.Contains(items, w) {
					return false
				}
			}
			return true
		default:
			return false
		}
	}
	switch f.Kind {
	case FilterEquals:
		return v.Compare(f.Operand.Value) == 0
	case FilterNotEquals:
		return v.Compare(f.Operand.Value) != 0
	case FilterGreaterThan:
		return v.Compare(f.Operand.Value) > 0
	case FilterLessThan:
		return v.Compare(f.Operand.Value) < 0
	case FilterInsideRange:
		return v.Compare(f.Operand.Start) >= 0 && v.Compare(f.Operand.End) <= 0
	case FilterNotInsideRange:
		return v.Compare(f.Operand.Start) < 0 || v.Compare(f.Operand.End) > 0
	default:
		return false
	}
}
