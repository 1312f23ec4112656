// This file implements the page table and page content for the SQLite
// backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.PageTable = (*pagesTable)(nil)

type pagesTable struct {
	backend *Backend
}

// Create adds a page to a collection. The title may be empty.
func (pt *pagesTable) Create(ctx context.Context, auth types.AuthContext, collectionID int64, title string) (*types.Page, error) {
	if collectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := pt.backend.authorize(ctx, auth, collectionID); err != nil {
		return nil, err
	}

	res, err := db.ExecContext(ctx, "INSERT INTO page (collection_id, title) VALUES (?, ?)", collectionID, title)
	if isForeignKeyViolation(err) {
		return nil, notFound("collection", collectionID, sql.ErrNoRows)
	}
	if err != nil {
		return nil, storeErr("inserting page", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("reading page id", err)
	}
	pt.backend.logger(ctx, auth).Debug("page created",
		zap.Int64("collection_id", collectionID),
		zap.Int64("page_id", id),
	)
	return &types.Page{ID: id, CollectionID: collectionID, Title: title}, nil
}

// Get returns the page with one value per collection property, defaults
// filled in for values never written.
func (pt *pagesTable) Get(ctx context.Context, auth types.AuthContext, id int64) (*types.Page, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var pg *types.Page
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		collectionID, err := pageCollection(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := pt.backend.authorize(ctx, auth, collectionID); err != nil {
			return err
		}
		pg, err = pt.backend.composePage(ctx, tx, collectionID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// SetTitle renames a page.
func (pt *pagesTable) SetTitle(ctx context.Context, auth types.AuthContext, id int64, title string) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := pt.authorizePage(ctx, db, auth, id); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "UPDATE page SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return storeErr("updating page title", err)
	}
	return expectAffected(res, "page", id)
}

// Delete removes a page with its values and content.
func (pt *pagesTable) Delete(ctx context.Context, auth types.AuthContext, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := pt.authorizePage(ctx, db, auth, id); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM page WHERE id = ?", id)
	if err != nil {
		return storeErr("deleting page", err)
	}
	if err := expectAffected(res, "page", id); err != nil {
		return err
	}
	pt.backend.logger(ctx, auth).Debug("page deleted", zap.Int64("page_id", id))
	return nil
}

// Content returns the markdown body of a page. A page whose content was
// never written has an empty body.
func (pt *pagesTable) Content(ctx context.Context, auth types.AuthContext, pageID int64) (*types.Content, error) {
	if pageID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := pt.authorizePage(ctx, db, auth, pageID); err != nil {
		return nil, err
	}

	c := &types.Content{PageID: pageID}
	err = db.QueryRowContext(ctx, "SELECT body FROM page_content WHERE page_id = ?", pageID).Scan(&c.Body)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storeErr("reading page content", err)
	}
	return c, nil
}

// SetContent replaces the markdown body of a page.
func (pt *pagesTable) SetContent(ctx context.Context, auth types.AuthContext, pageID int64, body string) error {
	if pageID <= 0 {
		return types.ErrInvalidID
	}
	db, release, err := pt.backend.acquire()
	if err != nil {
		return err
	}
	defer release()
	if err := pt.authorizePage(ctx, db, auth, pageID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO page_content (page_id, body) VALUES (?, ?) "+
			"ON CONFLICT(page_id) DO UPDATE SET body = excluded.body",
		pageID, body,
	); err != nil {
		if isForeignKeyViolation(err) {
			return notFound("page", pageID, sql.ErrNoRows)
		}
		return storeErr("writing page content", err)
	}
	return nil
}

func (pt *pagesTable) authorizePage(ctx context.Context, q querier, auth types.AuthContext, id int64) error {
	collectionID, err := pageCollection(ctx, q, id)
	if err != nil {
		return err
	}
	return pt.backend.authorize(ctx, auth, collectionID)
}

// pageCollection returns the collection of page id.
func pageCollection(ctx context.Context, q querier, id int64) (int64, error) {
	var collectionID int64
	if err := q.QueryRowContext(ctx, "SELECT collection_id FROM page WHERE id = ?", id).Scan(&collectionID); err != nil {
		return 0, notFound("page", id, err)
	}
	return collectionID, nil
}
