package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		// Never echo credentials.
		if shown.Places.Key != "" {
			shown.Places.Key = "<redacted>"
		}
		if shown.Census.Key != "" {
			shown.Census.Key = "<redacted>"
		}

		data, err := yaml.Marshal(&shown)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
