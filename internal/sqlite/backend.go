// Package sqlite implements the SQLite workspace backend for folio.
//
// Each value type has its own value table and filter operand tables; the
// page list is composed by one statement that left-joins one value table per
// property of the collection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/folio/internal/logger"
	"github.com/mesh-intelligence/folio/pkg/types"
)

var _ types.Workspace = (*Backend)(nil)

// dsnParams enables foreign keys, waits on locked databases, and makes
// write transactions take the write lock up front.
const dsnParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Backend implements types.Workspace on a SQLite database file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	log   *zap.Logger
	authz types.Authorizer
	now   func() time.Time

	// stores dispatches value and filter-operand storage by value type.
	stores map[types.ValueType]typedStore

	collections *collectionsTable
	properties  *propertiesTable
	pages       *pagesTable
	values      *valuesTable
	filters     *filtersTable
	sorts       *sortTable
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// WithAuthorizer replaces the default AllowAll authorizer.
func WithAuthorizer(a types.Authorizer) Option {
	return func(b *Backend) { b.authz = a }
}

// WithClock sets the time source for filter operand defaults.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:    zap.NewNop(),
		authz:  types.AllowAll{},
		now:    time.Now,
		stores: newTypedStores(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.collections = &collectionsTable{backend: b}
	b.properties = &propertiesTable{backend: b}
	b.pages = &pagesTable{backend: b}
	b.values = &valuesTable{backend: b}
	b.filters = &filtersTable{backend: b}
	b.sorts = &sortTable{backend: b}
	return b
}

// Attach opens (or creates) DataDir/folio.db, applies the schema and seeds
// the enumeration tables. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	config = config.WithDefaults()

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, types.DatabaseFileName)
	db, err := sql.Open("sqlite", "file:"+dbPath+dsnParams)
	if err != nil {
		return storeErr("opening database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return storeErr("opening database", err)
	}

	for _, stmt := range schemaDDL() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return storeErr("applying schema", err)
		}
	}
	if err := seedCodes(ctx, db); err != nil {
		db.Close()
		return storeErr("seeding codes", err)
	}

	b.db = db
	b.config = config
	b.attached = true

	b.log.Info("workspace attached",
		zap.String("path", dbPath),
		zap.Int("max_properties", config.MaxProperties),
		zap.Int("default_page_size", config.DefaultPageSize),
	)
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false

	err := b.db.Close()
	b.db = nil
	if err != nil {
		return storeErr("closing database", err)
	}
	b.log.Info("workspace detached")
	return nil
}

// Collections returns the collection table.
func (b *Backend) Collections() types.CollectionTable { return b.collections }

// Properties returns the property registry.
func (b *Backend) Properties() types.PropertyTable { return b.properties }

// Pages returns the page table.
func (b *Backend) Pages() types.PageTable { return b.pages }

// Values returns the property value store.
func (b *Backend) Values() types.ValueTable { return b.values }

// Filters returns the filter store.
func (b *Backend) Filters() types.FilterTable { return b.filters }

// Sorts returns the sort directive store.
func (b *Backend) Sorts() types.SortTable { return b.sorts }

// acquire returns the open database and holds the read lock until release
// is called, so Detach waits for in-flight operations.
func (b *Backend) acquire() (db *sql.DB, release func(), err error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrDetached
	}
	return b.db, b.mu.RUnlock, nil
}

// authorize asks the Authorizer whether auth may act on collectionID.
func (b *Backend) authorize(ctx context.Context, auth types.AuthContext, collectionID int64) error {
	if err := b.authz.Authorize(ctx, auth, collectionID); err != nil {
		b.logger(ctx, auth).Info("request denied",
			zap.Int64("collection_id", collectionID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// logger returns the request logger tagged with the caller's request id.
func (b *Backend) logger(ctx context.Context, auth types.AuthContext) *zap.Logger {
	l := logger.FromContextOr(ctx, b.log)
	if auth.RequestID != "" {
		l = l.With(zap.String("request_id", auth.RequestID))
	}
	return l
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside one transaction, committing when fn returns nil.
func inTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return storeErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr("committing transaction", err)
	}
	return nil
}

var readOnly = &sql.TxOptions{ReadOnly: true}
