package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/folio/pkg/types"
)

// storeErr wraps a driver error with ErrStore and the failing action.
// Errors that already carry a sentinel from pkg/types pass through wrapped
// only with the action.
func storeErr(action string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainErr(err) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %w: %w", action, types.ErrStore, err)
}

// notFound maps sql.ErrNoRows to ErrNotFound naming what was looked up.
func notFound(what string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, types.ErrNotFound)
	}
	return storeErr("getting "+what, err)
}

func isDomainErr(err error) bool {
	for _, sentinel := range []error{
		types.ErrNotFound, types.ErrTypeMismatch, types.ErrConflict, types.ErrStore,
		types.ErrInvalidID, types.ErrInvalidName, types.ErrInvalidValueType,
		types.ErrInvalidFilter, types.ErrInvalidDirection, types.ErrPropertyLimit,
		types.ErrForbidden, types.ErrDetached,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	default:
		return false
	}
}

// isForeignKeyViolation reports whether err is a FOREIGN KEY constraint
// failure.
func isForeignKeyViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY
}
