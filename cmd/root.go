// Package cmd implements the callhub-mcp CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/callhubmcp/callhubmcp/internal/config"
)

const version = "0.1.0"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "callhub-mcp",
	Short: "callhub-mcp — credential-scoped MCP proxy for the CallHub API",
	Long: "callhub-mcp exposes the CallHub call-center API as MCP tools, with\n" +
		"multi-account credential scoping and a batch agent-activation workflow.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		cfgpkg.LoadDotenv()
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
}

// setupLogging configures the process-wide slog default. Everything goes
// to stderr: stdout belongs to the MCP stdio transport.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
