package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/untoldecay/memlayer/internal/config"
)

// configCmd groups read-only introspection of the resolved viper
// configuration. There are no set/unset subcommands: this engine's
// settings are file/env-driven, not mutated through the CLI.
var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "ops",
	Short:   "Inspect the resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every resolved config key as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.AllSettings()
		b, err := yaml.Marshal(settings)
		if err != nil {
			printErr(fmt.Errorf("memlayer: encoding config: %w", err))
			return nil
		}
		if used := config.FileUsed(); used != "" {
			fmt.Printf("# loaded from %s\n", used)
		} else {
			fmt.Println("# no config file found; showing defaults and env overrides only")
		}
		fmt.Print(string(b))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
