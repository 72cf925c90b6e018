// Package cmd contains the CLI commands of the menusync client.
package cmd

import (
	"fmt"
	"os"

	"github.com/dishcraft/menusync/internal/client"
	"github.com/dishcraft/menusync/internal/config"
	"github.com/dishcraft/menusync/internal/logger"
	"github.com/spf13/cobra"
)

var (
	app *client.App
	log *logger.Logger

	serverURL string
	dbPath    string
)

var rootCmd = &cobra.Command{
	Use:   "menusync",
	Short: "Offline-first menu management client",
	Long: `menusync manages a restaurant menu that keeps working without a network.

Every change is stored locally first and answered immediately; a background
sync engine pushes the changes to the central menu store whenever it is
reachable. Items whose automatic retries were exhausted are flagged as
sync_problematic and wait for the next manual edit or sync.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command. Build information injected at link time is
// exposed through the standard --version flag.
func Execute(buildVersion, buildDate, buildCommit string) {
	rootCmd.Version = versionString(buildVersion, buildDate, buildCommit)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(_ *cobra.Command, _ []string) error {
	log = logger.NewClientLogger("menusync-client")

	cfg, err := config.GetClientConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// command-line flags win over environment and file configuration
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if dbPath != "" {
		cfg.LocalDBPath = dbPath
	}

	app, err = client.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("init client: %w", err)
	}

	return nil
}

func versionString(buildVersion, buildDate, buildCommit string) string {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	return fmt.Sprintf("%s (built %s, commit %s)", buildVersion, buildDate, buildCommit)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "base URL of the remote menu store")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the local SQLite database file")
}
