// Package paths resolves the configuration directory, data directory and
// schema file used by the entitykeys CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "entitykeys"

// File and directory names.
const (
	DefaultDataDirName = ".entitykeys-db"
	ConfigFileName     = "config.yaml"
	SchemaFileName     = "schema.yaml"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ENTITYKEYS_CONFIG_DIR"
	EnvDataDir   = "ENTITYKEYS_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// platformDefault returns $<xdgVar>/entitykeys on Linux, falling back to
// ~/<fallback...>/entitykeys, and os.UserConfigDir()/entitykeys elsewhere.
func platformDefault(xdgVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/entitykeys (fallback ~/.config/entitykeys)
// macOS:   ~/Library/Application Support/entitykeys
// Windows: %APPDATA%/entitykeys
func DefaultConfigDir() (string, error) {
	return platformDefault("XDG_CONFIG_HOME", ".config")
}

// firstAbs returns the first non-empty candidate made absolute, or "" if
// every candidate is empty.
func firstAbs(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return "", nil
}

// ResolveConfigDir applies flag > ENTITYKEYS_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	dir, err := firstAbs(flag, os.Getenv(EnvConfigDir))
	if err != nil || dir != "" {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config value > ENTITYKEYS_DATA_DIR >
// $(CWD)/.entitykeys-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	dir, err := firstAbs(flag, configValue, os.Getenv(EnvDataDir))
	if err != nil || dir != "" {
		return dir, err
	}
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveSchemaFile applies flag > config value > <configDir>/schema.yaml.
// Relative config values are taken relative to configDir.
func ResolveSchemaFile(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		if filepath.IsAbs(configValue) {
			return configValue, nil
		}
		return filepath.Join(configDir, configValue), nil
	}
	return filepath.Join(configDir, SchemaFileName), nil
}
