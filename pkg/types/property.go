package types

import (
	"fmt"
	"strings"
)

// Property is a typed, named attribute defined on a collection. Every page
// in the collection has exactly one value for it, materialised or defaulted.
type Property struct {
	ID           int64     `json:"id"`
	CollectionID int64     `json:"collection_id"`
	Name         string    `json:"name"`
	Type         ValueType `json:"type"`

	// Order is the display position. Nil sorts after every ordered property,
	// ties broken by ID.
	Order *int `json:"order,omitempty"`
}

// PropertyQuery selects the properties returned by PropertyTable.List.
type PropertyQuery struct {
	CollectionID int64

	// OrderIn restricts the result to properties whose order is one of the
	// listed values. Empty means no restriction.
	OrderIn []int
}

// MoveDirection is the direction of a Reorder step.
type MoveDirection int

const (
	MoveUp   MoveDirection = 1
	MoveDown MoveDirection = 2
)

func (d MoveDirection) String() string {
	switch d {
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	default:
		return fmt.Sprintf("MoveDirection(%d)", int(d))
	}
}

// ParseMoveDirection resolves "up" or "down".
func ParseMoveDirection(s string) (MoveDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return MoveUp, nil
	case "down":
		return MoveDown, nil
	default:
		return 0, fmt.Errorf("%w: move %q", ErrInvalidDirection, s)
	}
}

// ValidateName trims name and rejects empty results with ErrInvalidName.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
