// Command feedctl administers a FeedStatus dashboard from the shell: it
// checks CSV files before upload, pushes them to a running server, manages
// the audit log slot and can run the server itself.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/FeedStatus/internal/config"
	"github.com/JonMunkholm/FeedStatus/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// cfg is loaded once per invocation by loadConfig.
	cfg *config.Config

	envFile  string
	logLevel string
	jsonOut  bool
)

var rootCmd = &cobra.Command{
	Use:   "feedctl",
	Short: "Manage the retailer feed status dashboard",
	Long: `feedctl works with the product catalog and eCommerce datasets of a
FeedStatus dashboard.

Configuration is read from the environment (and an optional .env file)
exactly as the server reads it, so both share the same audit log storage.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print machine readable JSON")

	rootCmd.AddCommand(datasetsCmd, checkCmd, uploadCmd, logCmd, serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cfg != nil {
		return nil
	}
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	// Logs go to stderr so command output can be piped.
	logging.SetupWriter(os.Stderr, loaded.Logging.Level, loaded.Logging.Format)
	slog.Debug("configuration loaded", "config", loaded.String())
	cfg = loaded
	return nil
}

// commandContext is cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
