package config

import (
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPAddress          = ":8080"
	defaultServerRequestTimeout = 30 * time.Second
	defaultMaxPayloadBytes      = 1 << 20 // 1 MiB
)

// ServerConfig is the server-specific view over the merged structured
// configuration, with defaults applied.
type ServerConfig struct {
	// HTTPAddress is the listen address in "host:port" format.
	HTTPAddress string
	// DSN is the PostgreSQL connection string of the authoritative store.
	DSN string
	// RequestTimeout bounds inbound request handling.
	RequestTimeout time.Duration
	// MaxPayloadBytes is the hard request-size ceiling enforced on upserts.
	MaxPayloadBytes int64
}

// GetServerConfig assembles the server configuration from environment
// variables, command-line flags, and the optional JSON file (in that order of
// precedence), applies defaults, and validates the result.
func GetServerConfig() (*ServerConfig, error) {
	structured, err := newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
	if err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		HTTPAddress:     structured.Server.HTTPAddress,
		DSN:             structured.Storage.DB.DSN,
		RequestTimeout:  structured.Server.RequestTimeout,
		MaxPayloadBytes: structured.Server.MaxPayloadBytes,
	}
	cfg.applyDefaults()

	return cfg, cfg.validate()
}

func (c *ServerConfig) applyDefaults() {
	if c.HTTPAddress == "" {
		c.HTTPAddress = defaultHTTPAddress
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultServerRequestTimeout
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = defaultMaxPayloadBytes
	}
}

func (c *ServerConfig) validate() error {
	if c.DSN == "" {
		return ErrMissingDatabaseDSN
	}
	if !strings.Contains(c.HTTPAddress, ":") {
		return ErrInvalidServerAddress
	}
	return nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
