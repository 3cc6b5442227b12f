package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exportiq/dealerscout/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dealerscout",
	Short: "Multi-market dealer discovery pipeline",
	Long:  "Discovers and qualifies importer/dealer companies across target markets by fanning out to graph, web search, and registry sources, then scoring, deduplicating, and tiering the results.",
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
