package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:     "event",
	GroupID: "ingestion",
	Short:   "Work with raw L0 events",
}

var (
	eventUpsertPayload string
	eventUpsertDistill bool
	eventUpsertSession string
)

var eventUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Insert a raw event, optionally distilling it into an L1 Observation",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		payload := []byte(eventUpsertPayload)
		if eventUpsertPayload == "" {
			payload, err = readStdinIfPiped()
			if err != nil {
				printErr(err)
				return nil
			}
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		result, err := eng.ingest.UpsertEvent(rootCtx, scope, payload, idempotencyKeyFlag, eventUpsertDistill, eventUpsertSession)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

// readStdinIfPiped reads stdin for the --payload flag's fallback, returning
// an empty payload (not an error) when stdin is a terminal.
func readStdinIfPiped() ([]byte, error) {
	fi, err := os.Stdin.Stat()
	if err != nil || (fi.Mode()&os.ModeCharDevice) != 0 {
		return []byte{}, nil
	}
	return io.ReadAll(os.Stdin)
}

func init() {
	eventUpsertCmd.Flags().StringVar(&eventUpsertPayload, "payload", "", "event payload (raw bytes); reads stdin if omitted")
	eventUpsertCmd.Flags().BoolVar(&eventUpsertDistill, "distill", false, "also materialize an L1 Observation from this event")
	eventUpsertCmd.Flags().StringVar(&eventUpsertSession, "source-session", "", "best-effort observability tag")
	eventCmd.AddCommand(eventUpsertCmd)
	rootCmd.AddCommand(eventCmd)
}
