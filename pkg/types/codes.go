package types

import (
	"fmt"
	"strings"
)

// Code is one row of a closed enumeration: the small integer persisted in
// the store, a stable machine name, and a display name.
type Code struct {
	Code    int
	Name    string
	Display string
}

// ValueType identifies the storage type of a property and of every value
// attached to it.
type ValueType int

// Value types. The integer codes are persisted; never renumber them.
const (
	TypeBool        ValueType = 1
	TypeInt         ValueType = 2
	TypeFloat       ValueType = 3
	TypeString      ValueType = 4
	TypeMultiString ValueType = 5
	TypeDate        ValueType = 6
	TypeDatetime    ValueType = 7
)

// FilterKind is the comparison a filter applies to a property's values.
type FilterKind int

// Filter kinds. The integer codes are persisted; never renumber them.
const (
	FilterEquals         FilterKind = 1
	FilterNotEquals      FilterKind = 2
	FilterGreaterThan    FilterKind = 3
	FilterLessThan       FilterKind = 4
	FilterInsideRange    FilterKind = 5
	FilterNotInsideRange FilterKind = 6
	FilterIsEmpty        FilterKind = 7
)

// SortDirection orders the page list by the sort property.
type SortDirection int

// Sort directions. The integer codes are persisted; never renumber them.
const (
	SortAscending  SortDirection = 1
	SortDescending SortDirection = 2
)

// ValueTypeCodes is the enumeration table for ValueType.
var ValueTypeCodes = []Code{
	{int(TypeBool), "bool", "Boolean"},
	{int(TypeInt), "int", "Integer"},
	{int(TypeFloat), "float", "Decimal"},
	{int(TypeString), "string", "Text"},
	{int(TypeMultiString), "multistring", "Tags"},
	{int(TypeDate), "date", "Date"},
	{int(TypeDatetime), "datetime", "Date & Time"},
}

// FilterKindCodes is the enumeration table for FilterKind.
var FilterKindCodes = []Code{
	{int(FilterEquals), "eq", "Exactly Equals"},
	{int(FilterNotEquals), "neq", "Does not Equal"},
	{int(FilterGreaterThan), "gt", "Is Greater Than"},
	{int(FilterLessThan), "lt", "Is Less Than"},
	{int(FilterInsideRange), "in_range", "Is Inside Range"},
	{int(FilterNotInsideRange), "not_in_range", "Is Not Inside Range"},
	{int(FilterIsEmpty), "is_empty", "Is Empty"},
}

// SortDirectionCodes is the enumeration table for SortDirection.
var SortDirectionCodes = []Code{
	{int(SortAscending), "asc", "Ascending"},
	{int(SortDescending), "desc", "Descending"},
}

func lookupCode(table []Code, code int) (Code, bool) {
	for _, c := range table {
		if c.Code == code {
			return c, true
		}
	}
	return Code{}, false
}

func lookupName(table []Code, name string) (Code, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range table {
		if c.Name == name {
			return c, true
		}
	}
	return Code{}, false
}

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	_, ok := lookupCode(ValueTypeCodes, int(t))
	return ok
}

func (t ValueType) String() string {
	if c, ok := lookupCode(ValueTypeCodes, int(t)); ok {
		return c.Name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// DisplayName returns the human-readable name of t.
func (t ValueType) DisplayName() string {
	if c, ok := lookupCode(ValueTypeCodes, int(t)); ok {
		return c.Display
	}
	return t.String()
}

// ParseValueType resolves a machine name ("int", "date", ...) to a ValueType.
func ParseValueType(name string) (ValueType, error) {
	c, ok := lookupName(ValueTypeCodes, name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValueType, name)
	}
	return ValueType(c.Code), nil
}

// ValueTypeFromCode converts a persisted code to a ValueType.
func ValueTypeFromCode(code int) (ValueType, error) {
	if !ValueType(code).Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrInvalidValueType, code)
	}
	return ValueType(code), nil
}

// Valid reports whether k is a known filter kind.
func (k FilterKind) Valid() bool {
	_, ok := lookupCode(FilterKindCodes, int(k))
	return ok
}

func (k FilterKind) String() string {
	if c, ok := lookupCode(FilterKindCodes, int(k)); ok {
		return c.Name
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// DisplayName returns the human-readable name of k.
func (k FilterKind) DisplayName() string {
	if c, ok := lookupCode(FilterKindCodes, int(k)); ok {
		return c.Display
	}
	return k.String()
}

// IsRange reports whether k compares against a (start, end) pair.
func (k FilterKind) IsRange() bool {
	return k == FilterInsideRange || k == FilterNotInsideRange
}

// HasOperand reports whether k needs any operand at all.
func (k FilterKind) HasOperand() bool {
	return k != FilterIsEmpty
}

// ParseFilterKind resolves a machine name ("eq", "in_range", ...).
func ParseFilterKind(name string) (FilterKind, error) {
	c, ok := lookupName(FilterKindCodes, name)
	if !ok {
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidFilter, name)
	}
	return FilterKind(c.Code), nil
}

// FilterKindFromCode converts a persisted code to a FilterKind.
func FilterKindFromCode(code int) (FilterKind, error) {
	if !FilterKind(code).Valid() {
		return 0, fmt.Errorf("%w: kind code %d", ErrInvalidFilter, code)
	}
	return FilterKind(code), nil
}

// Valid reports whether d is a known sort direction.
func (d SortDirection) Valid() bool {
	_, ok := lookupCode(SortDirectionCodes, int(d))
	return ok
}

func (d SortDirection) String() string {
	if c, ok := lookupCode(SortDirectionCodes, int(d)); ok {
		return c.Name
	}
	return fmt.Sprintf("SortDirection(%d)", int(d))
}

// ParseSortDirection resolves "asc" or "desc".
func ParseSortDirection(name string) (SortDirection, error) {
	c, ok := lookupName(SortDirectionCodes, name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, name)
	}
	return SortDirection(c.Code), nil
}

// SortDirectionFromCode converts a persisted code to a SortDirection.
func SortDirectionFromCode(code int) (SortDirection, error) {
	if !SortDirection(code).Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrInvalidDirection, code)
	}
	return SortDirection(code), nil
}
