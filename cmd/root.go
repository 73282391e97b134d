package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/propdesk/import-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "import-cli",
	Short: "Bulk record importer for the propdesk contact platform",
	Long:  "Parses tabular contact files, reconciles columns against the property schema, validates rows, deduplicates against stored records, and commits batched writes under the monthly upload quota.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
