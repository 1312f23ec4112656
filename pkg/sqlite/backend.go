// Package sqlite provides the public API for the SQLite workspace backend.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/sqlite"
	"github.com/mesh-intelligence/folio/pkg/types"
)

// Option configures a backend created by NewBackend.
type Option = sqlite.Option

// WithLogger sets the logger used when a request context carries none.
func WithLogger(l *zap.Logger) Option { return sqlite.WithLogger(l) }

// WithAuthorizer replaces the default allow-all authorizer.
func WithAuthorizer(a types.Authorizer) Option { return sqlite.WithAuthorizer(a) }

// WithClock sets the time source for filter operand defaults.
func WithClock(now func() time.Time) Option { return sqlite.WithClock(now) }

// NewBackend creates a new SQLite workspace.
// The workspace is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	ws := sqlite.NewBackend(sqlite.WithLogger(log))
//	err := ws.Attach(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".folio",
//	})
//	defer ws.Detach()
func NewBackend(opts ...Option) types.Workspace {
	return sqlite.NewBackend(opts...)
}
