package types

import "context"

// Workspace is the storage-agnostic entry point to collections, their
// properties, pages, values, filters and sort directive. A Workspace must be
// attached before use; every accessor returns ErrDetached otherwise.
type Workspace interface {
	Attach(ctx context.Context, config Config) error
	Detach() error

	Collections() CollectionTable
	Properties() PropertyTable
	Pages() PageTable
	Values() ValueTable
	Filters() FilterTable
	Sorts() SortTable

	// ListPages composes the filtered, sorted page list of a collection with
	// every property value attached.
	ListPages(ctx context.Context, auth AuthContext, q PageQuery) ([]*Page, error)
}

// CollectionTable manages collections.
type CollectionTable interface {
	Create(ctx context.Context, auth AuthContext, name string) (*Collection, error)
	Get(ctx context.Context, auth AuthContext, id int64) (*Collection, error)
	List(ctx context.Context, auth AuthContext) ([]*Collection, error)
	Rename(ctx context.Context, auth AuthContext, id int64, name string) error
	Delete(ctx context.Context, auth AuthContext, id int64) error
}

// PropertyTable is the per-collection property registry.
type PropertyTable interface {
	Create(ctx context.Context, auth AuthContext, collectionID int64, name string, vt ValueType) (*Property, error)
	Get(ctx context.Context, auth AuthContext, id int64) (*Property, error)
	List(ctx context.Context, auth AuthContext, q PropertyQuery) ([]*Property, error)
	Rename(ctx context.Context, auth AuthContext, id int64, name string) error
	Reorder(ctx context.Context, auth AuthContext, id int64, dir MoveDirection) ([]*Property, error)
	Delete(ctx context.Context, auth AuthContext, id int64) error
}

// PageTable manages pages and their markdown content.
type PageTable interface {
	Create(ctx context.Context, auth AuthContext, collectionID int64, title string) (*Page, error)
	// Get returns the page with every property value attached.
	Get(ctx context.Context, auth AuthContext, id int64) (*Page, error)
	SetTitle(ctx context.Context, auth AuthContext, id int64, title string) error
	Delete(ctx context.Context, auth AuthContext, id int64) error
	Content(ctx context.Context, auth AuthContext, pageID int64) (*Content, error)
	SetContent(ctx context.Context, auth AuthContext, pageID int64, body string) error
}

// ValueTable stores the value of a (page, property) pair.
type ValueTable interface {
	// Get returns the stored value, or the type default when the pair has
	// never been written. The default is not persisted.
	Get(ctx context.Context, auth AuthContext, pageID, propertyID int64) (Value, error)
	// GetOrInit returns the stored value, persisting the default first when
	// the pair has never been written.
	GetOrInit(ctx context.Context, auth AuthContext, pageID, propertyID int64) (Value, error)
	Upsert(ctx context.Context, auth AuthContext, pageID, propertyID int64, v Value) error
}

// FilterTable stores at most one filter per property.
type FilterTable interface {
	List(ctx context.Context, auth AuthContext, collectionID int64) ([]*Filter, error)
	Get(ctx context.Context, auth AuthContext, id int64) (*Filter, error)
	// Create returns ErrConflict when the property already has a filter.
	Create(ctx context.Context, auth AuthContext, spec FilterSpec) (*Filter, error)
	Update(ctx context.Context, auth AuthContext, id int64, kind FilterKind, op Operand) (*Filter, error)
	Delete(ctx context.Context, auth AuthContext, id int64) error
	// Available lists the collection's properties that have no filter yet.
	Available(ctx context.Context, auth AuthContext, collectionID int64) ([]*Property, error)
	HasCapacity(ctx context.Context, auth AuthContext, collectionID int64) (bool, error)
}

// SortTable stores the sort directive of a collection.
type SortTable interface {
	Get(ctx context.Context, auth AuthContext, collectionID int64) (Sort, bool, error)
	Set(ctx context.Context, auth AuthContext, collectionID int64, s Sort) error
	Clear(ctx context.Context, auth AuthContext, collectionID int64) error
}
