package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-radar/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Lead scoring and geospatial clustering for local-service sales teams",
	Long:  "Samples or searches candidate leads around a map center, scores them against industry and trade profiles using census, storm, and business signals, and clusters the results into neighborhoods.",
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
