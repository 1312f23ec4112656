package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/folio/internal/metrics"
	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.ValueTable = (*valuesTable)(nil)

// valuesTable routes (page, property) value access to the typed store of
// the property's value type.
type valuesTable struct {
	backend *Backend
}

// Get returns the stored value of the pair, or the type default without
// persisting it.
func (vt *valuesTable) Get(ctx context.Context, auth types.AuthContext, pageID, propID int64) (types.Value, error) {
	if pageID <= 0 || propID <= 0 {
		return types.Value{}, types.ErrInvalidID
	}
	db, release, err := vt.backend.acquire()
	if err != nil {
		return types.Value{}, err
	}
	defer release()

	var out types.Value
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		st, prop, err := vt.resolve(ctx, tx, auth, pageID, propID)
		if err != nil {
			return err
		}
		v, ok, err := st.getValue(ctx, tx, pageID, propID)
		if err != nil {
			return err
		}
		if !ok {
			v, err = types.DefaultValue(prop.Type)
		}
		out = v
		return err
	})
	return out, err
}

// GetOrInit returns the stored value of the pair, writing the type default
// first when the pair has no value.
func (vt *valuesTable) GetOrInit(ctx context.Context, auth types.AuthContext, pageID, propID int64) (types.Value, error) {
	if pageID <= 0 || propID <= 0 {
		return types.Value{}, types.ErrInvalidID
	}
	db, release, err := vt.backend.acquire()
	if err != nil {
		return types.Value{}, err
	}
	defer release()

	var out types.Value
	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		st, prop, err := vt.resolve(ctx, tx, auth, pageID, propID)
		if err != nil {
			return err
		}
		v, ok, err := st.getValue(ctx, tx, pageID, propID)
		if err != nil {
			return err
		}
		if !ok {
			if v, err = types.DefaultValue(prop.Type); err != nil {
				return err
			}
			if err := st.putValue(ctx, tx, pageID, propID, v); err != nil {
				return err
			}
			metrics.ValueUpsertsTotal.WithLabelValues(prop.Type.String()).Inc()
		}
		out = v
		return nil
	})
	return out, err
}

// Upsert writes the value of the pair. The value type must match the
// property type. Writing a null date or datetime removes the stored value.
func (vt *valuesTable) Upsert(ctx context.Context, auth types.AuthContext, pageID, propID int64, v types.Value) error {
	if pageID <= 0 || propID <= 0 {
		return types.ErrInvalidID
	}
	if v.IsZero() {
		return fmt.Errorf("%w: value has no type", types.ErrTypeMismatch)
	}
	if err := v.Check(); err != nil {
		return err
	}
	db, release, err := vt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()

	return inTx(ctx, db, nil, func(tx *sql.Tx) error {
		st, prop, err := vt.resolve(ctx, tx, auth, pageID, propID)
		if err != nil {
			return err
		}
		if v.Type() != prop.Type {
			return fmt.Errorf("property %d is %s, value is %s: %w", propID, prop.Type, v.Type(), types.ErrTypeMismatch)
		}
		if err := st.putValue(ctx, tx, pageID, propID, v); err != nil {
			return err
		}
		metrics.ValueUpsertsTotal.WithLabelValues(prop.Type.String()).Inc()
		return nil
	})
}

// resolve loads the property, checks that the page belongs to the same
// collection and that auth may act on it, and returns the typed store.
func (vt *valuesTable) resolve(ctx context.Context, q querier, auth types.AuthContext, pageID, propID int64) (typedStore, *types.Property, error) {
	prop, err := getProperty(ctx, q, propID)
	if err != nil {
		return nil, nil, err
	}
	collectionID, err := pageCollection(ctx, q, pageID)
	if err != nil {
		return nil, nil, err
	}
	if collectionID != prop.CollectionID {
		return nil, nil, fmt.Errorf("property %d on page %d: %w", propID, pageID, types.ErrNotFound)
	}
	if err := vt.backend.authorize(ctx, auth, collectionID); err != nil {
		return nil, nil, err
	}
	st, err := vt.backend.storeFor(prop.Type)
	if err != nil {
		return nil, nil, err
	}
	return st, prop, nil
}
