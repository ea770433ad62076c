package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Supported store backends.
const (
	// BackendMemory is an unbounded concurrent map. Entries live until they
	// are deleted or the store is cleared.
	BackendMemory = "memory"
	// BackendSturdyc is a bounded, sharded store that evicts on capacity and
	// expires entries after TTL.
	BackendSturdyc = "sturdyc"
)

// Config holds the configuration for the cache store backends.
type Config struct {
	// Backend selects the store implementation. Empty means BackendMemory.
	Backend string

	// Capacity defines the maximum number of entries a bounded backend holds.
	// Must be greater than 0 for BackendSturdyc.
	Capacity int

	// NumShards determines the number of shards for concurrent access.
	// Must be greater than 0 for BackendSturdyc. Default: 256
	NumShards int

	// TTL is the time-to-live for entries in a bounded backend.
	// The memory backend never expires entries.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when a bounded backend reaches capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often expired entries are swept.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	switch c.Backend {
	case "", BackendMemory:
		return nil
	case BackendSturdyc:
	default:
		return &ConfigError{Field: "Backend", Message: "must be one of memory, sturdyc"}
	}

	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// NewStore builds the backend selected by cfg.
func NewStore(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendSturdyc {
		return NewSturdycStore(cfg)
	}
	return NewMemoryStore(), nil
}
