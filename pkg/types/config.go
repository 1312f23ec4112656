package types

import "errors"

// Config holds backend selection and parameters for Workspace.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxProperties caps the number of properties per collection. The page
	// list query joins one table per property and SQLite allows at most 64
	// tables in a join, so the cap must stay below that.
	MaxProperties int `json:"max_properties" yaml:"max_properties"`

	// DefaultPageSize applies when a PageQuery leaves Limit at zero.
	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by WithDefaults.
const (
	DefaultMaxProperties  = 60
	DefaultPageSize       = 100
	maxJoinableProperties = 62
	DatabaseFileName      = "folio.db"
)

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrMaxPropertiesHigh = errors.New("max_properties exceeds the join limit of the backend")
	ErrPageSizeInvalid   = errors.New("default_page_size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.MaxProperties > maxJoinableProperties {
		return ErrMaxPropertiesHigh
	}
	if c.DefaultPageSize < 0 {
		return ErrPageSizeInvalid
	}
	return nil
}

// WithDefaults returns a copy of c with zero-valued limits replaced by the
// package defaults.
func (c Config) WithDefaults() Config {
	if c.MaxProperties <= 0 {
		c.MaxProperties = DefaultMaxProperties
	}
	if c.DefaultPageSize == 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	return c
}
