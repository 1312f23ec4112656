package types

// Collection is a named set of pages sharing one property schema.
type Collection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`

	// Sort is the collection's sort directive, if any.
	Sort *Sort `json:"sort,omitempty"`
}

// Page is one entry of a collection. Properties is filled by readers that
// compose the page list and holds one entry per collection property, in
// registry order.
type Page struct {
	ID           int64           `json:"id"`
	CollectionID int64           `json:"collection_id"`
	Title        string          `json:"title"`
	Properties   []PropertyValue `json:"properties,omitempty"`
}

// PropertyValue is the value one page carries for one property.
type PropertyValue struct {
	PropertyID int64 `json:"property_id"`
	Value      Value `json:"value"`

	// Materialized is false when no value row exists and Value is the
	// in-memory default for the property type.
	Materialized bool `json:"materialized"`
}

// Value returns the value for propertyID and whether the page carries it.
func (p *Page) Value(propertyID int64) (Value, bool) {
	for _, pv := range p.Properties {
		if pv.PropertyID == propertyID {
			return pv.Value, true
		}
	}
	return Value{}, false
}

// Content is the markdown body of a page. A page without a content row
// reads as an empty body.
type Content struct {
	PageID int64  `json:"page_id"`
	Body   string `json:"body"`
}

// PageQuery selects a window of a collection's composed page list.
type PageQuery struct {
	CollectionID int64

	// Limit caps the number of pages returned. Zero applies the configured
	// default page size; a negative value returns every page.
	Limit  int
	Offset int
}
