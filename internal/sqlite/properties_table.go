// This file implements the property registry for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.PropertyTable = (*propertiesTable)(nil)

type propertiesTable struct {
	backend *Backend
}

const selectProperty = "SELECT id, collection_id, name, type, sort_order FROM property"

// Create registers a property on a collection. New properties have no order
// and list after every ordered property.
func (pt *propertiesTable) Create(ctx context.Context, auth types.AuthContext, collectionID int64, name string, vt types.ValueType) (*types.Property, error) {
	if collectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	name, err := types.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if !vt.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidValueType, int(vt))
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := pt.backend.authorize(ctx, auth, collectionID); err != nil {
		return nil, err
	}

	prop := &types.Property{CollectionID: collectionID, Name: name, Type: vt}
	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		if err := collectionExists(ctx, tx, collectionID); err != nil {
			return err
		}
		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM property WHERE collection_id = ?", collectionID,
		).Scan(&count); err != nil {
			return storeErr("counting properties", err)
		}
		if limit := pt.backend.config.MaxProperties; count >= limit {
			return fmt.Errorf("collection %d has %d properties: %w", collectionID, limit, types.ErrPropertyLimit)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO property (collection_id, name, type) VALUES (?, ?, ?)",
			collectionID, name, int(vt),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("property %q: %w", name, types.ErrConflict)
		}
		if err != nil {
			return storeErr("inserting property", err)
		}
		prop.ID, err = res.LastInsertId()
		return storeErr("reading property id", err)
	})
	if err != nil {
		return nil, err
	}
	pt.backend.logger(ctx, auth).Debug("property created",
		zap.Int64("collection_id", collectionID),
		zap.Int64("property_id", prop.ID),
		zap.Stringer("type", vt),
	)
	return prop, nil
}

// Get retrieves a property by ID.
func (pt *propertiesTable) Get(ctx context.Context, auth types.AuthContext, id int64) (*types.Property, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	prop, err := getProperty(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := pt.backend.authorize(ctx, auth, prop.CollectionID); err != nil {
		return nil, err
	}
	return prop, nil
}

// List returns the collection's properties ordered by order (nulls last),
// then id.
func (pt *propertiesTable) List(ctx context.Context, auth types.AuthContext, q types.PropertyQuery) ([]*types.Property, error) {
	if q.CollectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := pt.backend.authorize(ctx, auth, q.CollectionID); err != nil {
		return nil, err
	}
	if err := collectionExists(ctx, db, q.CollectionID); err != nil {
		return nil, err
	}
	return listProperties(ctx, db, q.CollectionID, q.OrderIn)
}

// Rename changes a property name. Names are unique within a collection.
func (pt *propertiesTable) Rename(ctx context.Context, auth types.AuthContext, id int64, name string) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	name, err := types.ValidateName(name)
	if err != nil {
		return err
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()

	prop, err := getProperty(ctx, db, id)
	if err != nil {
		return err
	}
	if err := pt.backend.authorize(ctx, auth, prop.CollectionID); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "UPDATE property SET name = ? WHERE id = ?", name, id)
	if isUniqueViolation(err) {
		return fmt.Errorf("property %q: %w", name, types.ErrConflict)
	}
	if err != nil {
		return storeErr("renaming property", err)
	}
	return expectAffected(res, "property", id)
}

// Reorder moves a property one step up or down and returns the new ordered
// list. Properties without an order are first given orders after the
// current maximum, in list order, so the result is a total order. Moving
// the first property up or the last one down changes nothing else.
func (pt *propertiesTable) Reorder(ctx context.Context, auth types.AuthContext, id int64, dir types.MoveDirection) ([]*types.Property, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	if dir != types.MoveUp && dir != types.MoveDown {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidDirection, dir)
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var out []*types.Property
	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		prop, err := getProperty(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := pt.backend.authorize(ctx, auth, prop.CollectionID); err != nil {
			return err
		}
		props, err := listProperties(ctx, tx, prop.CollectionID, nil)
		if err != nil {
			return err
		}
		if err := assignMissingOrders(ctx, tx, props); err != nil {
			return err
		}

		idx := -1
		for i, p := range props {
			if p.ID == id {
				idx = i
				break
			}
		}
		neighbor := idx - 1
		if dir == types.MoveDown {
			neighbor = idx + 1
		}
		if idx >= 0 && neighbor >= 0 && neighbor < len(props) {
			a, b := props[idx], props[neighbor]
			if err := setOrder(ctx, tx, a.ID, *b.Order); err != nil {
				return err
			}
			if err := setOrder(ctx, tx, b.ID, *a.Order); err != nil {
				return err
			}
		}

		out, err = listProperties(ctx, tx, prop.CollectionID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// assignMissingOrders gives every nil-ordered property in props an order
// after the current maximum, updating props in place.
func assignMissingOrders(ctx context.Context, tx *sql.Tx, props []*types.Property) error {
	next := 0
	for _, p := range props {
		if p.Order != nil && *p.Order >= next {
			next = *p.Order + 1
		}
	}
	for _, p := range props {
		if p.Order != nil {
			continue
		}
		if err := setOrder(ctx, tx, p.ID, next); err != nil {
			return err
		}
		order := next
		p.Order = &order
		next++
	}
	return nil
}

func setOrder(ctx context.Context, q querier, id int64, order int) error {
	if _, err := q.ExecContext(ctx, "UPDATE property SET sort_order = ? WHERE id = ?", order, id); err != nil {
		return storeErr("updating property order", err)
	}
	return nil
}

// Delete removes a property with its values and filter, and clears the
// collection sort directive when it sorts by this property.
func (pt *propertiesTable) Delete(ctx context.Context, auth types.AuthContext, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()

	prop, err := getProperty(ctx, db, id)
	if err != nil {
		return err
	}
	if err := pt.backend.authorize(ctx, auth, prop.CollectionID); err != nil {
		return err
	}

	err = inTx(ctx, db, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE collection SET sort_prop_id = NULL, sort_direction = NULL WHERE sort_prop_id = ?", id,
		); err != nil {
			return storeErr("clearing sort", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM property WHERE id = ?", id)
		if err != nil {
			return storeErr("deleting property", err)
		}
		return expectAffected(res, "property", id)
	})
	if err != nil {
		return err
	}
	pt.backend.logger(ctx, auth).Debug("property deleted",
		zap.Int64("collection_id", prop.CollectionID),
		zap.Int64("property_id", id),
	)
	return nil
}

func getProperty(ctx context.Context, q querier, id int64) (*types.Property, error) {
	prop, err := hydrateProperty(q.QueryRowContext(ctx, selectProperty+" WHERE id = ?", id))
	if err != nil {
		return nil, notFound("property", id, err)
	}
	return prop, nil
}

// listProperties returns the properties of a collection in registry order,
// optionally restricted to the given order values.
func listProperties(ctx context.Context, q querier, collectionID int64, orderIn []int) ([]*types.Property, error) {
	stmt := selectProperty + " WHERE collection_id = ?"
	args := []any{collectionID}
	if len(orderIn) > 0 {
		placeholders := make([]string, len(orderIn))
		for i, o := range orderIn {
			placeholders[i] = "?"
			args = append(args, o)
		}
		stmt += " AND sort_order IN (" + strings.Join(placeholders, ", ") + ")"
	}
	stmt += " ORDER BY sort_order ASC NULLS LAST, id ASC"

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeErr("listing properties", err)
	}
	defer rows.Close()

	var props []*types.Property
	for rows.Next() {
		p, err := hydrateProperty(rows)
		if err != nil {
			return nil, storeErr("scanning property", err)
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listing properties", err)
	}
	return props, nil
}

func hydrateProperty(row scanner) (*types.Property, error) {
	var (
		p     types.Property
		code  int
		order sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.CollectionID, &p.Name, &code, &order); err != nil {
		return nil, err
	}
	vt, err := types.ValueTypeFromCode(code)
	if err != nil {
		return nil, err
	}
	p.Type = vt
	if order.Valid {
		o := int(order.Int64)
		p.Order = &o
	}
	return &p, nil
}
