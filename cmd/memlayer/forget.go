package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/governance"
)

var (
	forgetUserID string
	forgetStart  string
	forgetEnd    string
)

var forgetCmd = &cobra.Command{
	Use:     "forget",
	GroupID: "governance",
	Short:   "Tombstone and delete memories matching a selector",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		sel := governance.Selector{UserID: forgetUserID}
		if forgetStart != "" {
			t, err := time.Parse(time.RFC3339, forgetStart)
			if err != nil {
				printErr(fmt.Errorf("memlayer: parsing --start: %w", err))
				return nil
			}
			sel.StartTime = &t
		}
		if forgetEnd != "" {
			t, err := time.Parse(time.RFC3339, forgetEnd)
			if err != nil {
				printErr(fmt.Errorf("memlayer: parsing --end: %w", err))
				return nil
			}
			sel.EndTime = &t
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		result, err := eng.govern.ForgetMemory(rootCtx, scope, sel)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	forgetCmd.Flags().StringVar(&forgetUserID, "user-id", "", "narrow the selector to a single user_id")
	forgetCmd.Flags().StringVar(&forgetStart, "start", "", "RFC3339 start of the selector's time window")
	forgetCmd.Flags().StringVar(&forgetEnd, "end", "", "RFC3339 end of the selector's time window")
	rootCmd.AddCommand(forgetCmd)
}
