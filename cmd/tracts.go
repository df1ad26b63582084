package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/revenue-radar/internal/tracts"
)

var tractsDir string

var tractsCmd = &cobra.Command{
	Use:   "tracts",
	Short: "Work with the local TIGER tract index",
}

var tractsCheckCmd = &cobra.Command{
	Use:     "check",
	Aliases: []string{"load"},
	Short:   "Load the tract shapefiles and report how many tracts indexed",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := tractsDir
		if dir == "" {
			dir = cfg.Tracts.ShapefileDir
		}

		idx, err := tracts.LoadDir(dir)
		if err != nil {
			return err
		}

		fmt.Printf("indexed %d tracts from %s\n", idx.Len(), dir)
		return nil
	},
}

func init() {
	tractsCheckCmd.Flags().StringVar(&tractsDir, "dir", "", "shapefile directory (default from config)")
	tractsCmd.AddCommand(tractsCheckCmd)
	rootCmd.AddCommand(tractsCmd)
}
