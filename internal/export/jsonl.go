// Package export writes composed page lists to JSONL files.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// Record is one exported page. Values is keyed by property name and holds
// every property of the collection, defaults included.
type Record struct {
	ID     int64                  `json:"id"`
	Title  string                 `json:"title"`
	Values map[string]types.Value `json:"values"`
}

// Records converts composed pages into export records.
func Records(props []*types.Property, pages []*types.Page) []Record {
	names := make(map[int64]string, len(props))
	for _, p := range props {
		names[p.ID] = p.Name
	}
	out := make([]Record, 0, len(pages))
	for _, pg := range pages {
		rec := Record{ID: pg.ID, Title: pg.Title, Values: make(map[string]types.Value, len(pg.Properties))}
		for _, pv := range pg.Properties {
			if name, ok := names[pv.PropertyID]; ok {
				rec.Values[name] = pv.Value
			}
		}
		out = append(out, rec)
	}
	return out
}

// Collection writes the filtered, sorted page list of a collection to path,
// one JSON record per line, replacing the file atomically. It returns the
// number of pages written.
func Collection(ctx context.Context, ws types.Workspace, auth types.AuthContext, collectionID int64, path string) (int, error) {
	props, err := ws.Properties().List(ctx, auth, types.PropertyQuery{CollectionID: collectionID})
	if err != nil {
		return 0, fmt.Errorf("listing properties: %w", err)
	}
	pages, err := ws.ListPages(ctx, auth, types.PageQuery{CollectionID: collectionID, Limit: -1})
	if err != nil {
		return 0, fmt.Errorf("listing pages: %w", err)
	}
	records := Records(props, pages)
	if err := WriteJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteJSONL atomically replaces path with records encoded one per line.
func WriteJSONL(path string, records []Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding page %d: %w", rec.ID, err)
		}
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
