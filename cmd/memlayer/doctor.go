package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/store"
)

var (
	doctorWatchSeconds int
	doctorDuplicates   bool
)

// doctorCmd runs a handful of fast, independent health checks against the
// configured store: each check degrades to an empty/false result rather
// than failing the whole command.
var doctorCmd = &cobra.Command{
	Use:     "doctor",
	GroupID: "ops",
	Short:   "Check the store's health: migrations, vector extension, staleness, duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		report := map[string]any{
			"db_path":           eng.store.Path(),
			"vector_enabled":    eng.store.VectorEnabled(),
			"graph_accelerator": eng.graph.Enabled(),
			"migrations":        store.MigrationNames(),
		}

		if doctorWatchSeconds > 0 {
			active, err := eng.store.WatchStaleness(time.Duration(doctorWatchSeconds) * time.Second)
			if err != nil {
				report["staleness_check_error"] = err.Error()
			} else {
				report["active_writes_observed"] = active
			}
		}

		if doctorDuplicates {
			groups, err := eng.store.FindDuplicateContentHashes(rootCtx, nil)
			if err != nil {
				report["duplicate_check_error"] = err.Error()
			} else {
				report["duplicate_groups"] = groups
			}
		}

		printOK(report)
		return nil
	},
}

func init() {
	doctorCmd.Flags().IntVar(&doctorWatchSeconds, "watch-seconds", 0, "if set, watch the db directory for this long to detect active writers")
	doctorCmd.Flags().BoolVar(&doctorDuplicates, "duplicates", false, "scan L0/L1 content_hash values for duplicate groups")
	rootCmd.AddCommand(doctorCmd)
}
