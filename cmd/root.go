package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/trustgate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trustgate",
	Short: "Confidence-gated data access for LLM prompts",
	Long:  "Retrieves records from Supabase and Notion, scores how much each can be trusted, and decides whether an LLM gets to see the data or must answer \"I don't know\". Also ingests source webhooks to keep cached decisions honest.",
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
