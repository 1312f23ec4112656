package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform replaces platform detection for the duration of the test.
func fakePlatform(t *testing.T, goos string, env map[string]string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })

	platformDir.goos = goos
	platformDir.getenv = func(k string) string { return env[k] }
	platformDir.homeDir = func() (string, error) { return "/home/ada", nil }
	platformDir.userConfigDir = func() (string, error) {
		if goos == "windows" {
			return `C:\Users\ada\AppData\Roaming`, nil
		}
		return "/Users/ada/Library/Application Support", nil
	}
}

func TestPlatformDefaults(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		env        map[string]string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG set",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			wantConfig: "/xdg/config/folio",
			wantData:   "/xdg/data/folio",
		},
		{
			name:       "linux falls back to home",
			goos:       "linux",
			wantConfig: "/home/ada/.config/folio",
			wantData:   "/home/ada/.local/share/folio",
		},
		{
			name:       "darwin shares one directory",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored"},
			wantConfig: filepath.Join("/Users/ada/Library/Application Support", "folio"),
			wantData:   filepath.Join("/Users/ada/Library/Application Support", "folio"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, tt.env)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, got)
		})
	}
}

func TestPlatformDefaults_HomeError(t *testing.T) {
	fakePlatform(t, "linux", nil)
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"platform default when both empty", "", "", "/home/ada/.config/folio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvConfigDir: tt.env})
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		configValue string
		env         string
		want        string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config.yaml wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env wins when flag and config empty", "", "", "/env/data", "/env/data"},
		{"platform default when all empty", "", "", "", "/home/ada/.local/share/folio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, "linux", map[string]string{EnvDataDir: tt.env})
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	fakePlatform(t, "linux", map[string]string{EnvConfigDir: "relative/env"})

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	assert.Equal(t, "config", filepath.Base(got))
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/folio", "config.yaml"), ConfigFile("/etc/folio"))
}
