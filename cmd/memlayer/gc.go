package main

import (
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:     "gc",
	GroupID: "governance",
	Short:   "Garbage-collect expired L0 events and compact L1 observations",
}

var gcSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete every L0 event whose expires_at has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		n, err := eng.govern.GCSweep(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(map[string]any{"events_deleted": n})
		return nil
	},
}

var gcCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Fold same-day, same-repo/module observations into episode summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		result, err := eng.govern.GCCompact(rootCtx, scope)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	gcCmd.AddCommand(gcSweepCmd, gcCompactCmd)
	rootCmd.AddCommand(gcCmd)
}
