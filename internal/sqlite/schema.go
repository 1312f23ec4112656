// Schema DDL for the workspace database.
package sqlite

import "fmt"

// Schema DDL for the entity tables. Every statement is idempotent so Attach
// can run it against an existing database file.
const (
	createValueType = `CREATE TABLE IF NOT EXISTS value_type (
    code INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display TEXT NOT NULL
);`

	createFilterKind = `CREATE TABLE IF NOT EXISTS filter_kind (
    code INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display TEXT NOT NULL
);`

	createSortDirection = `CREATE TABLE IF NOT EXISTS sort_direction (
    code INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    display TEXT NOT NULL
);`

	createCollection = `CREATE TABLE IF NOT EXISTS collection (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    sort_prop_id INTEGER REFERENCES property(id) ON DELETE SET NULL,
    sort_direction INTEGER REFERENCES sort_direction(code)
);`

	createProperty = `CREATE TABLE IF NOT EXISTS property (
    id INTEGER PRIMARY KEY,
    collection_id INTEGER NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    type INTEGER NOT NULL REFERENCES value_type(code),
    sort_order INTEGER,
    UNIQUE (collection_id, name)
);`

	createPage = `CREATE TABLE IF NOT EXISTS page (
    id INTEGER PRIMARY KEY,
    collection_id INTEGER NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
    title TEXT NOT NULL
);`

	createPageContent = `CREATE TABLE IF NOT EXISTS page_content (
    page_id INTEGER PRIMARY KEY REFERENCES page(id) ON DELETE CASCADE,
    body TEXT NOT NULL
);`

	createFilter = `CREATE TABLE IF NOT EXISTS filter (
    id INTEGER PRIMARY KEY,
    prop_id INTEGER NOT NULL UNIQUE REFERENCES property(id) ON DELETE CASCADE,
    kind INTEGER NOT NULL REFERENCES filter_kind(code),
    value_type INTEGER NOT NULL REFERENCES value_type(code)
);`

	createMultiStringItem = `CREATE TABLE IF NOT EXISTS propval_multistring_item (
    page_id INTEGER NOT NULL,
    prop_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (page_id, prop_id, position),
    FOREIGN KEY (page_id, prop_id) REFERENCES propval_multistring(page_id, prop_id) ON DELETE CASCADE
);`

	createFilterMultiString = `CREATE TABLE IF NOT EXISTS filter_multistring (
    filter_id INTEGER NOT NULL REFERENCES filter(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (filter_id, position)
);`
)

// Index DDL for common queries.
const (
	idxPropertyCollection = `CREATE INDEX IF NOT EXISTS idx_property_collection ON property(collection_id);`
	idxPageCollection     = `CREATE INDEX IF NOT EXISTS idx_page_collection ON page(collection_id);`
	idxCollectionSort     = `CREATE INDEX IF NOT EXISTS idx_collection_sort ON collection(sort_prop_id);`
)

// valueTableDDL describes the storage of one value type: the SQL column
// type of its value table and whether its filters can be ranges.
type valueTableDDL struct {
	suffix   string
	sqlType  string
	hasRange bool
}

// valueTableDDLs lists the scalar value types. The multistring value table
// keeps its item count in value; items live in propval_multistring_item.
var valueTableDDLs = []valueTableDDL{
	{"bool", "INTEGER", false},
	{"int", "INTEGER", true},
	{"float", "REAL", true},
	{"string", "TEXT", false},
	{"date", "TEXT", true},
	{"datetime", "TEXT", true},
	{"multistring", "INTEGER", false},
}

func (d valueTableDDL) statements() []string {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS propval_%[1]s (
    page_id INTEGER NOT NULL REFERENCES page(id) ON DELETE CASCADE,
    prop_id INTEGER NOT NULL REFERENCES property(id) ON DELETE CASCADE,
    value %[2]s NOT NULL,
    PRIMARY KEY (page_id, prop_id)
);`, d.suffix, d.sqlType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_propval_%[1]s_prop ON propval_%[1]s(prop_id);`, d.suffix),
	}
	if d.suffix == "multistring" {
		return stmts
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS filter_%[1]s (
    filter_id INTEGER PRIMARY KEY REFERENCES filter(id) ON DELETE CASCADE,
    value %[2]s NOT NULL
);`, d.suffix, d.sqlType))
	if d.hasRange {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS filter_%[1]s_range (
    filter_id INTEGER PRIMARY KEY REFERENCES filter(id) ON DELETE CASCADE,
    range_start %[2]s NOT NULL,
    range_end %[2]s NOT NULL
);`, d.suffix, d.sqlType))
	}
	return stmts
}

// schemaDDL returns every CREATE statement in dependency order.
func schemaDDL() []string {
	stmts := []string{
		createValueType,
		createFilterKind,
		createSortDirection,
		createCollection,
		createProperty,
		createPage,
		createPageContent,
		createFilter,
	}
	for _, d := range valueTableDDLs {
		stmts = append(stmts, d.statements()...)
	}
	return append(stmts,
		createMultiStringItem,
		createFilterMultiString,
		idxPropertyCollection,
		idxPageCollection,
		idxCollectionSort,
	)
}
