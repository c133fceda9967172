package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/doctag/internal/api"
	"github.com/jackzampolin/doctag/internal/config"
	"github.com/jackzampolin/doctag/internal/home"
	"github.com/jackzampolin/doctag/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "doctag",
	Short: "Extract bracket tags and supervisors from thesis documents",
	Long: `Doctag reads a folder of Word (.docx) theses, finds the main body
between the introduction and the conclusion, and extracts tagged terms.

For every document it:
  - Locates the main body via table of contents links, heading styles or heading text
  - Splits the main text into chunks and sends them to an annotation model
    (or parses existing [X*]...[*X] markup with --preannotated-only)
  - Detects the supervisor from the first page
  - Appends supervisor:path:tags:sha256 to the index file in the root folder`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.doctag/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "doctag home directory (default: ~/.doctag)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Set output format and logger before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
		slog.SetDefault(newLogger())
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig resolves the home directory and loads configuration from it.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	cm, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if f := cm.ConfigFile(); f != "" {
		slog.Debug("loaded config", "file", f)
	}
	return cm, h, nil
}
