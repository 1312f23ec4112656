package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedFilterKinds(t *testing.T) {
	assert.Equal(t, []FilterKind{FilterEquals, FilterNotEquals, FilterIsEmpty}, SupportedFilterKinds(TypeBool))
	assert.Equal(t, []FilterKind{FilterEquals, FilterNotEquals, FilterIsEmpty}, SupportedFilterKinds(TypeMultiString))
	assert.Len(t, SupportedFilterKinds(TypeInt), len(FilterKindCodes))
	assert.Len(t, SupportedFilterKinds(TypeDatetime), len(FilterKindCodes))
	assert.True(t, SupportsFilterKind(TypeString, FilterGreaterThan))
	assert.False(t, SupportsFilterKind(TypeString, FilterInsideRange))
	assert.Empty(t, SupportedFilterKinds(0))
}

func TestDefaultOperand(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		vt        ValueType
		kind      FilterKind
		wantValue Value
		wantStart Value
		wantEnd   Value
		wantErr   error
	}{
		{name: "int single", vt: TypeInt, kind: FilterEquals, wantValue: NewInt(0)},
		{name: "int range", vt: TypeInt, kind: FilterInsideRange, wantStart: NewInt(0), wantEnd: NewInt(10)},
		{name: "float range", vt: TypeFloat, kind: FilterNotInsideRange, wantStart: NewFloat(0), wantEnd: NewFloat(10)},
		{name: "date single is today", vt: TypeDate, kind: FilterLessThan, wantValue: NewDate(now)},
		{
			name: "date range spans ten days", vt: TypeDate, kind: FilterInsideRange,
			wantStart: NewDate(now.AddDate(0, 0, -10)), wantEnd: NewDate(now),
		},
		{
			name: "datetime range spans ten days", vt: TypeDatetime, kind: FilterInsideRange,
			wantStart: NewDatetime(now.AddDate(0, 0, -10)), wantEnd: NewDatetime(now),
		},
		{name: "bool single", vt: TypeBool, kind: FilterEquals, wantValue: NewBool(false)},
		{name: "is empty has no operand", vt: TypeString, kind: FilterIsEmpty},
		{name: "bool range unsupported", vt: TypeBool, kind: FilterInsideRange, wantErr: ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := DefaultOperand(tt.vt, tt.kind, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantValue.Equal(op.Value), "value %v", op.Value)
			assert.True(t, tt.wantStart.Equal(op.Start), "start %v", op.Start)
			assert.True(t, tt.wantEnd.Equal(op.End), "end %v", op.End)
		})
	}
}

func TestNormalizeOperand(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

	t.Run("keeps provided single operand", func(t *testing.T) {
		op, err := NormalizeOperand(TypeInt, FilterGreaterThan, Operand{Value: NewInt(5)}, now)
		require.NoError(t, err)
		assert.True(t, NewInt(5).Equal(op.Value))
		assert.True(t, op.Start.IsZero())
	})
	t.Run("fills missing range end", func(t *testing.T) {
		op, err := NormalizeOperand(TypeInt, FilterInsideRange, Operand{Start: NewInt(2)}, now)
		require.NoError(t, err)
		assert.True(t, NewInt(2).Equal(op.Start))
		assert.True(t, NewInt(10).Equal(op.End))
	})
	t.Run("drops operand for is empty", func(t *testing.T) {
		op, err := NormalizeOperand(TypeInt, FilterIsEmpty, Operand{Value: NewInt(5)}, now)
		require.NoError(t, err)
		assert.Equal(t, Operand{}, op)
	})
	t.Run("rejects wrong operand type", func(t *testing.T) {
		_, err := NormalizeOperand(TypeInt, FilterEquals, Operand{Value: NewString("5")}, now)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := NormalizeOperand(TypeFloat, FilterInsideRange, Operand{Start: NewFloat(3), End: NewFloat(1)}, now)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
	t.Run("rejects non-finite float operand", func(t *testing.T) {
		_, err := NormalizeOperand(TypeFloat, FilterNotInsideRange, Operand{Start: NewFloat(math.Inf(-1)), End: NewFloat(1)}, now)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})
	t.Run("rejects null operand", func(t *testing.T) {
		_, err := NormalizeOperand(TypeDate, FilterEquals, Operand{Value: NullValue(TypeDate)}, now)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
	t.Run("rejects unsupported kind", func(t *testing.T) {
		_, err := NormalizeOperand(TypeMultiString, FilterGreaterThan, Operand{}, now)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})
}

func TestFilterMatches(t *testing.T) {
	intFilter := func(kind FilterKind, op Operand) Filter {
		return Filter{Type: TypeInt, Kind: kind, Operand: op}
	}
	tags := func(items ...string) Value { return NewMultiString(items) }

	tests := []struct {
		name         string
		filter       Filter
		value        Value
		materialized bool
		want         bool
	}{
		{"eq hit", intFilter(FilterEquals, Operand{Value: NewInt(3)}), NewInt(3), true, true},
		{"eq miss", intFilter(FilterEquals, Operand{Value: NewInt(3)}), NewInt(2), true, false},
		{"neq", intFilter(FilterNotEquals, Operand{Value: NewInt(3)}), NewInt(2), true, true},
		{"gt", intFilter(FilterGreaterThan, Operand{Value: NewInt(3)}), NewInt(4), true, true},
		{"lt", intFilter(FilterLessThan, Operand{Value: NewInt(3)}), NewInt(3), true, false},
		{"range inclusive", intFilter(FilterInsideRange, Operand{Start: NewInt(0), End: NewInt(3)}), NewInt(3), true, true},
		{"not in range", intFilter(FilterNotInsideRange, Operand{Start: NewInt(0), End: NewInt(3)}), NewInt(4), true, true},
		{"unmaterialized never compares", intFilter(FilterNotEquals, Operand{Value: NewInt(3)}), NewInt(0), false, false},
		{"is empty on missing row", intFilter(FilterIsEmpty, Operand{}), NewInt(0), false, true},
		{"is empty on stored row", intFilter(FilterIsEmpty, Operand{}), NewInt(0), true, false},
		{
			"tags contain all", Filter{Type: TypeMultiString, Kind: FilterEquals, Operand: Operand{Value: tags("a", "b")}},
			tags("b", "c", "a"), true, true,
		},
		{
			"tags missing one", Filter{Type: TypeMultiString, Kind: FilterEquals, Operand: Operand{Value: tags("a", "d")}},
			tags("a", "b"), true, false,
		},
		{
			"tags contain none", Filter{Type: TypeMultiString, Kind: FilterNotEquals, Operand: Operand{Value: tags("x")}},
			tags("a", "b"), true, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.value, tt.materialized))
		})
	}
}

func TestCodesRoundTrip(t *testing.T) {
	for _, c := range FilterKindCodes {
		k, err := ParseFilterKind(c.Name)
		require.NoError(t, err)
		assert.Equal(t, c.Code, int(k))
		fromCode, err := FilterKindFromCode(c.Code)
		require.NoError(t, err)
		assert.Equal(t, k, fromCode)
		assert.Equal(t, c.Display, k.DisplayName())
	}
	for _, c := range ValueTypeCodes {
		vt, err := ParseValueType(c.Name)
		require.NoError(t, err)
		assert.Equal(t, c.Name, vt.String())
	}

	_, err := ParseFilterKind("contains")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = ValueTypeFromCode(0)
	assert.ErrorIs(t, err, ErrInvalidValueType)
	_, err = ParseSortDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidDirection)
	d, err := ParseSortDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDescending, d)
}
