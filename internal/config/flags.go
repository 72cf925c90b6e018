package config

import (
	"flag"
	"os"
	"time"
)

// ParseFlags parses the server binary's command-line flags into a partial
// [StructuredConfig]. The client binary does not use this function: its
// command surface is owned by cobra, so the client config is assembled from
// environment variables and the optional JSON file only.
//
// Flags:
//
//	-a server listen address in format [host]:[port]
//	-d database DSN
//	-c/-config json file path with configs
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-max-payload maximum accepted request body size in bytes
func ParseFlags() *StructuredConfig {
	return parseFlags(os.Args[1:])
}

func parseFlags(args []string) *StructuredConfig {
	fs := flag.NewFlagSet("menusync", flag.ContinueOnError)

	var serverAddress string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var maxPayloadBytes int64

	fs.StringVar(&serverAddress, "a", "", "Net address host:port")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.Int64Var(&maxPayloadBytes, "max-payload", 0, "Maximum request body size in bytes")

	// Unknown flags abort parsing; whatever was collected so far is kept.
	_ = fs.Parse(args)

	return &StructuredConfig{
		Server: Server{
			HTTPAddress:     serverAddress,
			RequestTimeout:  requestTimeout,
			MaxPayloadBytes: maxPayloadBytes,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		JSONFilePath: jsonConfigPath,
	}
}
