// This file implements the page list composer: it loads the property list,
// filters and sort directive of a collection, then builds one statement
// that left-joins one value table per property, applies the filters as
// WHERE predicates and the sort as ORDER BY.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/metrics"
	"github.com/mesh-intelligence/folio/internal/query"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// pagePlan is the join structure of one page list statement.
type pagePlan struct {
	collectionID int64
	props        []*types.Property
	filters      []*types.Filter
	sort         *types.Sort
}

// pageWindow restricts the composed rows. onlyPage selects a single page
// when positive; limit < 0 means no limit.
type pageWindow struct {
	limit    int
	offset   int
	onlyPage int64
}

var pageAlias = query.Name("page")

// ListPages returns the collection's pages with every property value
// attached, filtered and sorted by the collection's filters and sort
// directive. Values never written are reported as type defaults with
// Materialized false.
func (b *Backend) ListPages(ctx context.Context, auth types.AuthContext, q types.PageQuery) ([]*types.Page, error) {
	if q.CollectionID <= 0 {
		return nil, types.ErrInvalidID
	}
	db, release, err := b.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	if err := b.authorize(ctx, auth, q.CollectionID); err != nil {
		return nil, err
	}

	window := pageWindow{limit: q.Limit, offset: max(q.Offset, 0)}
	switch {
	case q.Limit == 0:
		window.limit = b.config.DefaultPageSize
	case q.Limit < 0:
		window.limit = -1
	}

	log := b.logger(ctx, auth)
	start := time.Now()
	var (
		pages []*types.Page
		plan  pagePlan
	)
	err = inTx(ctx, db, readOnly, func(tx *sql.Tx) error {
		loaded, err := loadPlan(ctx, tx, q.CollectionID)
		if err != nil {
			return err
		}
		plan = prunePlan(log, loaded)
		pages, err = b.compose(ctx, tx, plan, window)
		return err
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	elapsed := time.Since(start)
	metrics.PageListDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if err != nil {
		return nil, err
	}
	metrics.PageListJoins.Observe(float64(len(plan.props)))

	log.Debug("page list composed",
		zap.Int64("collection_id", q.CollectionID),
		zap.Int("pages", len(pages)),
		zap.Int("joins", len(plan.props)),
		zap.Int("filters", len(plan.filters)),
		zap.Duration("elapsed", elapsed),
	)
	return pages, nil
}

// loadPlan reads the property list, filters and sort directive of a
// collection.
func loadPlan(ctx context.Context, q querier, collectionID int64) (pagePlan, error) {
	c, err := getCollection(ctx, q, collectionID)
	if err != nil {
		return pagePlan{}, err
	}
	props, err := listProperties(ctx, q, collectionID, nil)
	if err != nil {
		return pagePlan{}, err
	}
	filters, err := listFilters(ctx, q, collectionID)
	if err != nil {
		return pagePlan{}, err
	}
	return pagePlan{collectionID: collectionID, props: props, filters: filters, sort: c.Sort}, nil
}

// prunePlan drops filters and the sort directive when their property is no
// longer part of the plan, so a concurrent property delete cannot fail the
// page list.
func prunePlan(log *zap.Logger, plan pagePlan) pagePlan {
	byID := make(map[int64]*types.Property, len(plan.props))
	for _, p := range plan.props {
		byID[p.ID] = p
	}

	kept := plan.filters[:0:0]
	for _, f := range plan.filters {
		p, ok := byID[f.PropertyID]
		if ok && p.Type == f.Type {
			kept = append(kept, f)
			continue
		}
		log.Warn("dropping stale filter",
			zap.Int64("collection_id", plan.collectionID),
			zap.Int64("filter_id", f.ID),
			zap.Int64("property_id", f.PropertyID),
		)
		metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseFilter).Inc()
	}
	plan.filters = kept

	if plan.sort != nil {
		if _, ok := byID[plan.sort.PropertyID]; !ok {
			log.Warn("dropping stale sort",
				zap.Int64("collection_id", plan.collectionID),
				zap.Int64("property_id", plan.sort.PropertyID),
			)
			metrics.StaleClausesDropped.WithLabelValues(metrics.ClauseSort).Inc()
			plan.sort = nil
		}
	}
	return plan
}

// buildPageQuery renders the plan as one SELECT. Columns are page id,
// collection id, title, then one value column per property in plan order.
func (b *Backend) buildPageQuery(plan pagePlan, window pageWindow) (*query.Select, error) {
	sel := query.From(pageAlias, pageAlias).Columns(
		pageAlias.Col("id"), pageAlias.Col("collection_id"), pageAlias.Col("title"),
	)

	stores := make(map[int64]typedStore, len(plan.props))
	for _, p := range plan.props {
		st, err := b.storeFor(p.Type)
		if err != nil {
			return nil, err
		}
		stores[p.ID] = st
		alias := query.NumberedAlias("pv", p.ID)
		sel.Columns(alias.Col("value")).LeftJoin(st.valueTable(), alias,
			query.ColumnsEqual(alias.Col("page_id"), pageAlias.Col("id")),
			query.Compare(alias.Col("prop_id"), query.Eq, p.ID),
		)
	}

	sel.Where(query.Compare(pageAlias.Col("collection_id"), query.Eq, plan.collectionID))
	if window.onlyPage > 0 {
		sel.Where(query.Compare(pageAlias.Col("id"), query.Eq, window.onlyPage))
	}
	for _, f := range plan.filters {
		st := stores[f.PropertyID]
		sel.Where(st.predicate(pageAlias, query.NumberedAlias("pv", f.PropertyID), f)...)
	}

	if s := plan.sort; s != nil {
		dir := query.Asc
		if s.Direction == types.SortDescending {
			dir = query.Desc
		}
		col := query.NumberedAlias("pv", s.PropertyID).Col("value")
		// Absent values sort as their default; null temporal defaults sort as NULL.
		sel.OrderBy(query.Coalesce(col, stores[s.PropertyID].sortFallback()), dir)
	}
	sel.OrderBy(pageAlias.Col("id"), query.Asc)

	return sel.Limit(window.limit).Offset(window.offset), nil
}

// compose runs the page query of plan and assembles the pages.
func (b *Backend) compose(ctx context.Context, q querier, plan pagePlan, window pageWindow) ([]*types.Page, error) {
	sel, err := b.buildPageQuery(plan, window)
	if err != nil {
		return nil, err
	}
	stmt, args := sel.Build()

	scanners := make([]valueScanner, len(plan.props))
	defaults := make([]types.Value, len(plan.props))
	hasMulti := false
	for i, p := range plan.props {
		st, err := b.storeFor(p.Type)
		if err != nil {
			return nil, err
		}
		scanners[i] = st.newScanner()
		if defaults[i], err = types.DefaultValue(p.Type); err != nil {
			return nil, err
		}
		hasMulti = hasMulti || p.Type == types.TypeMultiString
	}

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, storeErr("querying pages", err)
	}
	defer rows.Close()

	var pages []*types.Page
	for rows.Next() {
		pg := &types.Page{}
		dest := make([]any, 0, 3+len(scanners))
		dest = append(dest, &pg.ID, &pg.CollectionID, &pg.Title)
		for _, sc := range scanners {
			dest = append(dest, sc.dest())
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, storeErr("scanning page row", err)
		}

		pg.Properties = make([]types.PropertyValue, len(plan.props))
		for i, p := range plan.props {
			v, ok, err := scanners[i].result()
			if err != nil {
				return nil, err
			}
			if !ok {
				v = defaults[i]
			}
			pg.Properties[i] = types.PropertyValue{PropertyID: p.ID, Value: v, Materialized: ok}
		}
		pages = append(pages, pg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("reading page rows", err)
	}
	rows.Close()

	if hasMulti && len(pages) > 0 {
		if err := fillMultiStrings(ctx, q, plan, window, pages); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

// fillMultiStrings loads every multi-string item of the collection (or of
// the single selected page) in one query and attaches them.
func fillMultiStrings(ctx context.Context, q querier, plan pagePlan, window pageWindow, pages []*types.Page) error {
	items := query.Name("item")
	sel := query.From(query.Name("propval_multistring_item"), items).
		Columns(items.Col("page_id"), items.Col("prop_id"), items.Col("value")).
		Join(pageAlias, pageAlias, query.ColumnsEqual(pageAlias.Col("id"), items.Col("page_id"))).
		Where(query.Compare(pageAlias.Col("collection_id"), query.Eq, plan.collectionID))
	if window.onlyPage > 0 {
		sel.Where(query.Compare(pageAlias.Col("id"), query.Eq, window.onlyPage))
	}
	sel.OrderBy(items.Col("page_id"), query.Asc).
		OrderBy(items.Col("prop_id"), query.Asc).
		OrderBy(items.Col("position"), query.Asc)
	stmt, args := sel.Build()

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return storeErr("querying multistring items", err)
	}
	defer rows.Close()

	type key struct{ page, prop int64 }
	byKey := make(map[key][]string)
	for rows.Next() {
		var (
			k    key
			item string
		)
		if err := rows.Scan(&k.page, &k.prop, &item); err != nil {
			return storeErr("scanning multistring item", err)
		}
		byKey[k] = append(byKey[k], item)
	}
	if err := rows.Err(); err != nil {
		return storeErr("reading multistring items", err)
	}

	for _, pg := range pages {
		for i, pv := range pg.Properties {
			if pv.Materialized && pv.Value.Type() == types.TypeMultiString {
				pg.Properties[i].Value = types.NewMultiString(byKey[key{pg.ID, pv.PropertyID}])
			}
		}
	}
	return nil
}

// composePage returns one page of collectionID with all property values.
func (b *Backend) composePage(ctx context.Context, q querier, collectionID, pageID int64) (*types.Page, error) {
	props, err := listProperties(ctx, q, collectionID, nil)
	if err != nil {
		return nil, err
	}
	plan := pagePlan{collectionID: collectionID, props: props}
	pages, err := b.compose(ctx, q, plan, pageWindow{limit: -1, onlyPage: pageID})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page %d: %w", pageID, types.ErrNotFound)
	}
	return pages[0], nil
}
