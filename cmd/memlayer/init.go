package main

import (
	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/store"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "ops",
	Short:   "Create the store and run schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(rootCtx, resolvedDBPath(), store.Options{})
		if err != nil {
			printErr(err)
			return nil
		}
		defer s.Close()
		printOK(map[string]any{
			"db_path":        s.Path(),
			"vector_enabled": s.VectorEnabled(),
			"migrations":     store.MigrationNames(),
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
