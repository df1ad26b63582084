package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/revenue-radar/internal/radar"
)

var searchFlags struct {
	lat      float64
	lng      float64
	radius   float64
	industry string
	trade    string
	filters  string
	nocache  bool
	out      string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one search and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initRadar(cmd.Context(), "search")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Service.Search(cmd.Context(), radar.Params{
			Lat:         searchFlags.lat,
			Lng:         searchFlags.lng,
			RadiusMiles: searchFlags.radius,
			Industry:    searchFlags.industry,
			Trade:       searchFlags.trade,
			FiltersJSON: searchFlags.filters,
			NoCache:     searchFlags.nocache,
		})
		if err != nil {
			return eris.Wrap(err, "search")
		}

		out := os.Stdout
		if searchFlags.out != "" {
			f, err := os.Create(searchFlags.out)
			if err != nil {
				return eris.Wrapf(err, "create %s", searchFlags.out)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode result")
		}

		zap.L().Info("search finished",
			zap.Int("leads", resp.Meta.ResultCount),
			zap.Bool("cached", resp.Meta.Cached))
		return nil
	},
}

func init() {
	searchCmd.Flags().Float64Var(&searchFlags.lat, "lat", 0, "center latitude (default from config)")
	searchCmd.Flags().Float64Var(&searchFlags.lng, "lng", 0, "center longitude (default from config)")
	searchCmd.Flags().Float64Var(&searchFlags.radius, "radius", 0, "search radius in miles (clamped to the industry max)")
	searchCmd.Flags().StringVar(&searchFlags.industry, "industry", "", "industry profile, e.g. roofing, b2b_service, photographer")
	searchCmd.Flags().StringVar(&searchFlags.trade, "trade", "", "trade or photographer niche, e.g. roofing, wedding")
	searchCmd.Flags().StringVar(&searchFlags.filters, "filters", "", "signal filter map as JSON, e.g. '{\"storm_proximity\":false}'")
	searchCmd.Flags().BoolVar(&searchFlags.nocache, "nocache", false, "bypass the cache read")
	searchCmd.Flags().StringVar(&searchFlags.out, "out", "", "write the JSON result to a file instead of stdout")
	rootCmd.AddCommand(searchCmd)
}
