// This file seeds the enumeration tables from the closed code tables in
// pkg/types on every attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// codeTable pairs an enumeration table with its rows.
type codeTable struct {
	table string
	codes []types.Code
}

var codeTables = []codeTable{
	{"value_type", types.ValueTypeCodes},
	{"filter_kind", types.FilterKindCodes},
	{"sort_direction", types.SortDirectionCodes},
}

// seedCodes inserts or refreshes every enumeration row. Existing rows keep
// their code; names and display names follow the Go tables.
func seedCodes(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ct := range codeTables {
		stmt := fmt.Sprintf(
			"INSERT INTO %s (code, name, display) VALUES (?, ?, ?) "+
				"ON CONFLICT(code) DO UPDATE SET name = excluded.name, display = excluded.display",
			ct.table,
		)
		for _, c := range ct.codes {
			if _, err := tx.ExecContext(ctx, stmt, c.Code, c.Name, c.Display); err != nil {
				return fmt.Errorf("seeding %s %q: %w", ct.table, c.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}
