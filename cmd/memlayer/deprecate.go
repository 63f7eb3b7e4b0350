package main

import (
	"github.com/spf13/cobra"
)

var (
	deprecateID           string
	deprecateReason       string
	deprecateSupersededBy string
)

var deprecateCmd = &cobra.Command{
	Use:     "deprecate",
	GroupID: "governance",
	Short:   "Mark an L1 or L2 memory deprecated",
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

		var supersededBy *string
		if deprecateSupersededBy != "" {
			supersededBy = &deprecateSupersededBy
		}
		result, err := eng.govern.DeprecateMemory(rootCtx, scope, deprecateID, deprecateReason, supersededBy)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	deprecateCmd.Flags().StringVar(&deprecateID, "id", "", "memory id to deprecate (required)")
	deprecateCmd.Flags().StringVar(&deprecateReason, "reason", "", "human-readable reason")
	deprecateCmd.Flags().StringVar(&deprecateSupersededBy, "superseded-by", "", "L2 memory id that replaces this one")
	deprecateCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(deprecateCmd)
}
