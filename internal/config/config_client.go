package config

import "time"

// Default values applied to the client configuration when a knob was not set
// by any source. The backoff-related defaults mirror the engine's contract:
// a small, fixed retry budget rather than unbounded retries.
const (
	defaultServerURL      = "http://localhost:8080"
	defaultLocalDBPath    = "menusync.db"
	defaultRequestTimeout = 15 * time.Second
	defaultSyncInterval   = 60 * time.Second
	defaultProbeInterval  = 30 * time.Second
	defaultProbeTimeout   = 5 * time.Second
	defaultPayloadBudget  = 1 << 20 // 1 MiB
	defaultMaxAttempts    = 3
)

// ClientConfig is the client-specific view over the merged structured
// configuration, with defaults applied.
type ClientConfig struct {
	// ServerURL is the base URL of the remote menu store.
	ServerURL string
	// RequestTimeout bounds outbound requests of the gateway adapter.
	RequestTimeout time.Duration
	// LocalDBPath is the SQLite file backing the local store.
	LocalDBPath string
	// Sync contains the engine tuning knobs with defaults applied.
	Sync Sync
}

// GetClientConfig assembles the client configuration from environment
// variables and the optional JSON file (flags belong to cobra on the client),
// applies defaults, and validates the result.
func GetClientConfig() (*ClientConfig, error) {
	structured, err := newConfigBuilder().
		withEnv().
		withJSON().
		build()
	if err != nil {
		return nil, err
	}

	cfg := &ClientConfig{
		ServerURL:      structured.Client.ServerURL,
		RequestTimeout: structured.Client.RequestTimeout,
		LocalDBPath:    structured.Storage.Local.Path,
		Sync:           structured.Sync,
	}
	cfg.applyDefaults()

	return cfg, cfg.validate()
}

func (c *ClientConfig) applyDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = defaultServerURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.LocalDBPath == "" {
		c.LocalDBPath = defaultLocalDBPath
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = defaultSyncInterval
	}
	if c.Sync.ProbeInterval <= 0 {
		c.Sync.ProbeInterval = defaultProbeInterval
	}
	if c.Sync.ProbeTimeout <= 0 {
		c.Sync.ProbeTimeout = defaultProbeTimeout
	}
	if c.Sync.PayloadBudgetBytes <= 0 {
		c.Sync.PayloadBudgetBytes = defaultPayloadBudget
	}
	if c.Sync.MaxAttempts <= 0 {
		c.Sync.MaxAttempts = defaultMaxAttempts
	}
}

func (c *ClientConfig) validate() error {
	if !isValidURL(c.ServerURL) {
		return ErrInvalidServerURL
	}
	return nil
}
