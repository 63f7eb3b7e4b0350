package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/hooks"
)

var hookEvent string

// hookCmd is the hook driver's thin adapter: a host agent runtime invokes
// this once per lifecycle event, passing the event payload on stdin and
// the scope via MEMLAYER_* environment variables.
var hookCmd = &cobra.Command{
	Use:     "hook",
	GroupID: "ops",
	Short:   "Run the stdin-JSON hook driver for one lifecycle event",
	RunE: func(cmd *cobra.Command, args []string) error {
		event := hookEvent
		if event == "" {
			event = os.Getenv("MEMLAYER_HOOK_EVENT")
		}
		if event == "" {
			printErr(hookUsageError{})
			return nil
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		driver := hooks.New(eng.ingest, eng.retrieve)
		if err := driver.Run(rootCtx, event, os.Stdin, os.Stdout); err != nil {
			printErr(err)
			return nil
		}
		return nil
	},
}

type hookUsageError struct{}

func (hookUsageError) Error() string {
	return "memlayer: --event or MEMLAYER_HOOK_EVENT must name a lifecycle event"
}

func init() {
	hookCmd.Flags().StringVar(&hookEvent, "event", "", "lifecycle event name (else read from MEMLAYER_HOOK_EVENT)")
	rootCmd.AddCommand(hookCmd)
}
