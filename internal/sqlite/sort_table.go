package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.SortTable = (*sortTable)(nil)

// sortTable stores the sort directive in the sort columns of collection.
type sortTable struct {
	backend *Backend
}

// Get returns the collection's sort directive; ok is false when the
// collection is unsorted.
func (st *sortTable) Get(ctx context.Context, auth types.AuthContext, collectionID int64) (types.Sort, bool, error) {
	if collectionID <= 0 {
		return types.Sort{}, false, types.ErrInvalidID
	}
	db, release, err := st.backend.acquire()
	if err != nil {
		return types.Sort{}, false, err
	}
	defer release()
	if err := st.backend.authorize(ctx, auth, collectionID); err != nil {
		return types.Sort{}, false, err
	}

	c, err := getCollection(ctx, db, collectionID)
	if err != nil {
		return types.Sort{}, false, err
	}
	if c.Sort == nil {
		return types.Sort{}, false, nil
	}
	return *c.Sort, true, nil
}

// Set sorts the collection by s. The property must belong to the collection.
func (st *sortTable) Set(ctx context.Context, auth types.AuthContext, collectionID int64, s types.Sort) error {
	if collectionID <= 0 {
		return types.ErrInvalidID
	}
	if err := s.Validate(); err != nil {
		return err
	}
	db, release, err := st.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := st.backend.authorize(ctx, auth, collectionID); err != nil {
		return err
	}

	prop, err := getProperty(ctx, db, s.PropertyID)
	if err != nil {
		return err
	}
	if prop.CollectionID != collectionID {
		return fmt.Errorf("property %d in collection %d: %w", s.PropertyID, collectionID, types.ErrNotFound)
	}

	res, err := db.ExecContext(ctx,
		"UPDATE collection SET sort_prop_id = ?, sort_direction = ? WHERE id = ?",
		s.PropertyID, int(s.Direction), collectionID,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("property %d: %w", s.PropertyID, types.ErrNotFound)
	}
	if err != nil {
		return storeErr("setting sort", err)
	}
	if err := expectAffected(res, "collection", collectionID); err != nil {
		return err
	}
	st.backend.logger(ctx, auth).Debug("sort set",
		zap.Int64("collection_id", collectionID),
		zap.Int64("property_id", s.PropertyID),
		zap.Stringer("direction", s.Direction),
	)
	return nil
}

// Clear removes the sort directive; the page list falls back to page id
// order.
func (st *sortTable) Clear(ctx context.Context, auth types.AuthContext, collectionID int64) error {
	if collectionID <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := st.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := st.backend.authorize(ctx, auth, collectionID); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		"UPDATE collection SET sort_prop_id = NULL, sort_direction = NULL WHERE id = ?", collectionID,
	)
	if err != nil {
		return storeErr("clearing sort", err)
	}
	return expectAffected(res, "collection", collectionID)
}
