package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/forge/pkg/config"
	"github.com/cuemby/forge/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cerr *config.ConfigInvalidError
		if errors.As(err, &cerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "FORGE - a terminal control plane for AI coding worker fleets",
	Long: `FORGE orchestrates a fleet of AI coding workers executing tasks drawn
from an issue tracker: it discovers and monitors workers from on-disk
status files, detects and recovers from crashes, mediates a chat
pipeline that proposes tool calls against live state, and tracks
per-request cost.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"forge version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to forge.yaml config file")
	rootCmd.PersistentFlags().String("status-dir", "./status", "Directory workers write status files into")
	rootCmd.PersistentFlags().String("data-dir", "./.forge", "Directory for FORGE's own databases and logs")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
