package config

import "errors"

// Validation errors returned by the config views when required settings are
// incomplete or invalid. Callers should match with [errors.Is].
var (
	// ErrInvalidServerURL indicates the client's remote endpoint is not a
	// usable http(s) URL.
	ErrInvalidServerURL = errors.New("invalid remote server URL")

	// ErrMissingDatabaseDSN indicates the server was started without a
	// database connection string.
	ErrMissingDatabaseDSN = errors.New("database DSN is required")

	// ErrInvalidServerAddress indicates the server listen address is not in
	// "host:port" format.
	ErrInvalidServerAddress = errors.New("invalid server listen address")
)
