package types

import "errors"

// Config holds backend selection and parameters for Cupboard.Attach.
type Config struct {
	Backend string      `json:"backend" yaml:"backend"`
	DataDir string      `json:"data_dir" yaml:"data_dir"`
	Redis   RedisConfig `json:"redis" yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	URL    string `json:"url" yaml:"url"`       // e.g. redis://localhost:6379/0
	Prefix string `json:"prefix" yaml:"prefix"` // Namespace for all keys
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Default values applied by the backends when a field is empty.
const (
	DefaultRedisURL    = "redis://localhost:6379/0"
	DefaultRedisPrefix = "entitykeys"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrInvalidPrefix  = errors.New("redis prefix must not contain ':'")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendRedis:  true,
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
	if c.Backend == BackendRedis {
		for _, r := range c.Redis.Prefix {
			if r == ':' {
				return ErrInvalidPrefix
			}
		}
	}
	return nil
}
