package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-radar/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the search cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print entry and counter counts for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "cache stats")
		}

		fmt.Printf("driver:   %s\n", driverName())
		fmt.Printf("entries:  %d\n", st.Entries)
		fmt.Printf("counters: %d\n", st.Counters)
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:     "sweep",
	Aliases: []string{"purge"},
	Short:   "Delete expired entries and counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		removed, err := store.Sweep(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "cache sweep")
		}

		zap.L().Info("cache swept", zap.Int64("removed", removed))
		fmt.Printf("removed %d expired entries\n", removed)
		return nil
	},
}

func driverName() string {
	if cfg.Store.Driver == "" {
		return "memory"
	}
	return cfg.Store.Driver
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	rootCmd.AddCommand(cacheCmd)
}
