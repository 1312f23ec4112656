package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/folio/internal/logger"
	"github.com/mesh-intelligence/folio/internal/paths"
	"github.com/mesh-intelligence/folio/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyEnv             = "env"
	cfgKeyLogLevel        = "log_level"
	cfgKeyHTTPAddr        = "http_addr"
	cfgKeyMaxProperties   = "max_properties"
	cfgKeyDefaultPageSize = "default_page_size"
)

// configFile is the shape of config.yaml.
type configFile struct {
	Backend         string `yaml:"backend"`
	DataDir         string `yaml:"data_dir,omitempty"`
	Env             string `yaml:"env"`
	LogLevel        string `yaml:"log_level"`
	HTTPAddr        string `yaml:"http_addr"`
	MaxProperties   int    `yaml:"max_properties"`
	DefaultPageSize int    `yaml:"default_page_size"`
}

// defaultConfig is written to config.yaml on first run.
func defaultConfig(dataDir string) configFile {
	return configFile{
		Backend:         types.BackendSQLite,
		DataDir:         dataDir,
		Env:             logger.EnvLocal,
		LogLevel:        "warn",
		HTTPAddr:        ":8080",
		MaxProperties:   types.DefaultMaxProperties,
		DefaultPageSize: types.DefaultPageSize,
	}
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. env, log_level and
// http_addr may be overridden by FOLIO_ENV, FOLIO_LOG_LEVEL and
// FOLIO_HTTP_ADDR.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(paths.ConfigFile(configDir), ""); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	def := defaultConfig("")
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyEnv, def.Env)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyHTTPAddr, def.HTTPAddr)
	v.SetDefault(cfgKeyMaxProperties, def.MaxProperties)
	v.SetDefault(cfgKeyDefaultPageSize, def.DefaultPageSize)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("FOLIO")
	for _, key := range []string{cfgKeyEnv, cfgKeyLogLevel, cfgKeyHTTPAddr} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfig(dataDir))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
