// Package paths resolves the folio configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "folio"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FOLIO_CONFIG_DIR"
	EnvDataDir   = "FOLIO_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	getenv        func(string) string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	getenv:        os.Getenv,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdgDir is one XDG base directory with its fallback below $HOME.
type xdgDir struct {
	env      string
	fallback []string
}

var (
	xdgConfig = xdgDir{env: "XDG_CONFIG_HOME", fallback: []string{".config"}}
	xdgData   = xdgDir{env: "XDG_DATA_HOME", fallback: []string{".local", "share"}}
)

// platformDefault returns the per-user folio directory for base.
//
// Linux:   $<base.env>/folio (fallback ~/<base.fallback>/folio)
// macOS:   ~/Library/Application Support/folio
// Windows: %APPDATA%/folio
func platformDefault(base xdgDir) (string, error) {
	if platformDir.goos == "linux" {
		if dir := platformDir.getenv(base.env); dir != "" {
			return filepath.Join(dir, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, base.fallback...), AppName)...), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
func DefaultConfigDir() (string, error) { return platformDefault(xdgConfig) }

// DefaultDataDir returns the platform-specific default data directory. On
// macOS and Windows it is the same as the configuration directory.
func DefaultDataDir() (string, error) { return platformDefault(xdgData) }

// firstAbs returns the absolute form of the first non-empty candidate, or
// ok false when all are empty.
func firstAbs(candidates ...string) (dir string, ok bool, err error) {
	for _, c := range candidates {
		if c != "" {
			dir, err = filepath.Abs(c)
			return dir, true, err
		}
	}
	return "", false, nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > FOLIO_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, platformDir.getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > data_dir from config.yaml > FOLIO_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, platformDir.getenv(EnvDataDir)); ok {
		return dir, err
	}
	return DefaultDataDir()
}

// ConfigFile returns the path of config.yaml inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
