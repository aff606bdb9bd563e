package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oleoflores/planta-cli/internal/config"
	"github.com/oleoflores/planta-cli/internal/schema"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "planta-cli",
	Short: "Production KPI pipeline for field, extraction, and refinery data",
	Long:  "Loads upstream/downstream production files (CSV/XLSX), validates schema, cleans values, derives variance and compliance against budget, and flags out-of-range records.",
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

// loadRegistry builds the schema registry: built-in defaults plus the
// optional override file from config.
func loadRegistry() (*schema.Registry, error) {
	reg := schema.Default()
	if cfg.Registry.Path != "" {
		if err := reg.LoadFile(cfg.Registry.Path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
