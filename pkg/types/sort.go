package types

// Sort is the single active ordering rule of a collection.
type Sort struct {
	PropertyID int64         `json:"property_id"`
	Direction  SortDirection `json:"direction"`
}

// Validate checks the direction and property id.
func (s Sort) Validate() error {
	if s.PropertyID <= 0 {
		return ErrInvalidID
	}
	if !s.Direction.Valid() {
		return ErrInvalidDirection
	}
	return nil
}
