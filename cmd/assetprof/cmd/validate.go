package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/assetprof/internal/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate checks the configuration file and, when the history store is
enabled, that its database is reachable.

Checks performed:
  - Configuration syntax and value ranges
  - At least one analyzer enabled
  - Known shader cost function
  - Store connectivity and table creation (if store.enabled)

Example:
  assetprof validate --config assetprof.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())

	cfg, err := loadConfig()
	if err != nil {
		cmd.Printf("❌ %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	cmd.Printf("Project: %s\n", cfg.Project.Path)
	cmd.Printf("Analyzers: %s\n", strings.Join(cfg.EnabledAnalyzers(), ", "))

	if cfg.Store.Enabled {
		log, err := logger.New(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()

		ctx := commandContext(cmd)
		_, dbManager, err := openStore(ctx, cfg, log)
		if err != nil {
			cmd.Printf("❌ Store check failed: %v\n", err)
			return fmt.Errorf("store is unreachable")
		}
		defer dbManager.Close()

		if err := dbManager.Ping(ctx); err != nil {
			cmd.Printf("❌ Store check failed: %v\n", err)
			return fmt.Errorf("store is unreachable")
		}
		cmd.Printf("Store: %s:%d/%s (table %s)\n", cfg.Store.Host, cfg.Store.Port, cfg.Store.Database, cfg.Store.Table)
	}

	cmd.Println("✅ Configuration is valid")
	return nil
}
