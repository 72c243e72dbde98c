package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/entitykeys/internal/paths"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// envPrefix namespaces environment overrides, e.g. ENTITYKEYS_BACKEND.
	envPrefix = "ENTITYKEYS"

	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeySchemaFile  = "schema_file"
	cfgKeyLogLevel    = "log_level"
	cfgKeyRedisURL    = "redis.url"
	cfgKeyRedisPrefix = "redis.prefix"

	defaultBackend  = types.BackendSQLite
	defaultLogLevel = "warn"
)

// envKeys are the keys that environment variables may override. data_dir
// is absent because paths.ResolveDataDir applies ENTITYKEYS_DATA_DIR with
// lower precedence than config.yaml.
var envKeys = []string{cfgKeyBackend, cfgKeySchemaFile, cfgKeyLogLevel, cfgKeyRedisURL, cfgKeyRedisPrefix}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# entitykeys configuration

# Storage backend: sqlite or redis
backend: sqlite

# Data directory for the sqlite backend (optional; overridable by --data-dir)
# data_dir:

# Schema file, relative to this directory (optional; overridable by --schema)
# schema_file: schema.yaml

# log_level: warn

redis:
  url: redis://localhost:6379/0
  prefix: entitykeys
`

// settings is the resolved configuration for one invocation.
type settings struct {
	config     types.Config
	schemaFile string
	logLevel   string
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyRedisURL, types.DefaultRedisURL)
	v.SetDefault(cfgKeyRedisPrefix, types.DefaultRedisPrefix)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveSettings combines flags and configuration. Flags win.
func resolveSettings(v *viper.Viper, f rootFlags, configDir string) (settings, error) {
	dataDir, err := paths.ResolveDataDir(f.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	schemaFile, err := paths.ResolveSchemaFile(f.schemaFile, v.GetString(cfgKeySchemaFile), configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve schema file: %w", err)
	}
	level := f.logLevel
	if level == "" {
		level = v.GetString(cfgKeyLogLevel)
	}

	return settings{
		config: types.Config{
			Backend: v.GetString(cfgKeyBackend),
			DataDir: dataDir,
			Redis: types.RedisConfig{
				URL:    v.GetString(cfgKeyRedisURL),
				Prefix: v.GetString(cfgKeyRedisPrefix),
			},
		},
		schemaFile: schemaFile,
		logLevel:   level,
	}, nil
}
