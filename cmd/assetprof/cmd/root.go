package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/config"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile        string
	logLevel       string
	logFormat      string
	workers        int
	timeoutSeconds float64
	reportFormat   string
	reportOutput   string
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var rootCmd = &cobra.Command{
	Use:   "assetprof",
	Short: "Game asset profiler and optimizer",
	Long: `A CLI tool that scans a game project's assets and reports optimization
opportunities, running every analyzer concurrently.

Analyzers:
  - material: batch materials that share a shader and properties
  - instance: convert repeated meshes to GPU instancing
  - mesh:     duplicate geometry, LOD and fragmentation suggestions
  - texture:  duplicates, oversized and uncompressed textures
  - shader:   variant enumeration, cost ranking and pre-compile plans`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "assetprof.yaml",
		"Path to configuration file (defaults are used when it does not exist)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Orchestrator overrides
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0,
		"Override number of analyzers run at once (0 = number of CPUs)")
	rootCmd.PersistentFlags().Float64Var(&timeoutSeconds, "timeout", 0,
		"Override seconds to wait for all analyzers (0 = no timeout)")

	// Report overrides
	rootCmd.PersistentFlags().StringVarP(&reportFormat, "format", "f", "",
		"Override report format (json, yaml)")
	rootCmd.PersistentFlags().StringVarP(&reportOutput, "output", "o", "",
		"Override report output file")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel       string
	LogFormat      string
	Workers        int
	TimeoutSeconds float64
	ReportFormat   string
	ReportOutput   string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:       logLevel,
		LogFormat:      logFormat,
		Workers:        workers,
		TimeoutSeconds: timeoutSeconds,
		ReportFormat:   reportFormat,
		ReportOutput:   reportOutput,
	}
}

// loadConfig loads the config file (or defaults), applies flag overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.Workers, o.TimeoutSeconds, o.ReportFormat, o.ReportOutput)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
