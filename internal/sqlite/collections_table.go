// This file implements the collection table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.CollectionTable = (*collectionsTable)(nil)

type collectionsTable struct {
	backend *Backend
}

const selectCollection = "SELECT id, name, sort_prop_id, sort_direction FROM collection"

// Create adds a collection. Collection-level authorization uses id 0.
func (ct *collectionsTable) Create(ctx context.Context, auth types.AuthContext, name string) (*types.Collection, error) {
	name, err := types.ValidateName(name)
	if err != nil {
		return nil, err
	}
	db, release, err := ct.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := ct.backend.authorize(ctx, auth, 0); err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx, "INSERT INTO collection (name) VALUES (?)", name)
	if err != nil {
		return nil, storeErr("inserting collection", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("reading collection id", err)
	}
	ct.backend.logger(ctx, auth).Debug("collection created", zap.Int64("collection_id", id))
	return &types.Collection{ID: id, Name: name}, nil
}

// Get retrieves a collection by ID, including its sort directive.
func (ct *collectionsTable) Get(ctx context.Context, auth types.AuthContext, id int64) (*types.Collection, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := ct.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := ct.backend.authorize(ctx, auth, id); err != nil {
		return nil, err
	}
	return getCollection(ctx, db, id)
}

// List returns every collection the caller may see, by id.
func (ct *collectionsTable) List(ctx context.Context, auth types.AuthContext) ([]*types.Collection, error) {
	db, release, err := ct.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := ct.backend.authorize(ctx, auth, 0); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, selectCollection+" ORDER BY id")
	if err != nil {
		return nil, storeErr("listing collections", err)
	}
	defer rows.Close()

	var out []*types.Collection
	for rows.Next() {
		c, err := hydrateCollection(rows)
		if err != nil {
			return nil, storeErr("scanning collection", err)
		}
		if ct.backend.authz.Authorize(ctx, auth, c.ID) != nil {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("listing collections", err)
	}
	return out, nil
}

// Rename changes the collection name.
func (ct *collectionsTable) Rename(ctx context.Context, auth types.AuthContext, id int64, name string) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	name, err := types.ValidateName(name)
	if err != nil {
		return err
	}
	db, release, err := ct.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := ct.backend.authorize(ctx, auth, id); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "UPDATE collection SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return storeErr("renaming collection", err)
	}
	return expectAffected(res, "collection", id)
}

// Delete removes a collection and, by cascade, its properties, pages,
// values, and filters.
func (ct *collectionsTable) Delete(ctx context.Context, auth types.AuthContext, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := ct.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := ct.backend.authorize(ctx, auth, id); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM collection WHERE id = ?", id)
	if err != nil {
		return storeErr("deleting collection", err)
	}
	if err := expectAffected(res, "collection", id); err != nil {
		return err
	}
	ct.backend.logger(ctx, auth).Debug("collection deleted", zap.Int64("collection_id", id))
	return nil
}

func getCollection(ctx context.Context, q querier, id int64) (*types.Collection, error) {
	c, err := hydrateCollection(q.QueryRowContext(ctx, selectCollection+" WHERE id = ?", id))
	if err != nil {
		return nil, notFound("collection", id, err)
	}
	return c, nil
}

// collectionExists returns ErrNotFound unless collection id exists.
func collectionExists(ctx context.Context, q querier, id int64) error {
	var one int
	if err := q.QueryRowContext(ctx, "SELECT 1 FROM collection WHERE id = ?", id).Scan(&one); err != nil {
		return notFound("collection", id, err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateCollection(row scanner) (*types.Collection, error) {
	var (
		c       types.Collection
		sortID  sql.NullInt64
		sortDir sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &sortID, &sortDir); err != nil {
		return nil, err
	}
	if sortID.Valid && sortDir.Valid {
		dir, err := types.SortDirectionFromCode(int(sortDir.Int64))
		if err != nil {
			return nil, err
		}
		c.Sort = &types.Sort{PropertyID: sortID.Int64, Direction: dir}
	}
	return &c, nil
}

// expectAffected turns a zero-row update or delete into ErrNotFound.
func expectAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("reading affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, types.ErrNotFound)
	}
	return nil
}
