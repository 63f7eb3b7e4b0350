package main

import (
	"github.com/spf13/cobra"
)

var (
	linkFrom   string
	linkTo     string
	linkRel    string
	linkWeight float64
)

var linkCmd = &cobra.Command{
	Use:     "link",
	GroupID: "ingestion",
	Short:   "Create or reweight an edge between two L2 memories",
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

		result, err := eng.ingest.LinkMemories(rootCtx, scope, linkFrom, linkTo, linkRel, linkWeight, idempotencyKeyFlag)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	linkCmd.Flags().StringVar(&linkFrom, "from", "", "source memory id (required)")
	linkCmd.Flags().StringVar(&linkTo, "to", "", "target memory id (required)")
	linkCmd.Flags().StringVar(&linkRel, "rel", "", "relation label (required)")
	linkCmd.Flags().Float64Var(&linkWeight, "weight", 1.0, "edge weight")
	linkCmd.MarkFlagRequired("from")
	linkCmd.MarkFlagRequired("to")
	linkCmd.MarkFlagRequired("rel")
	rootCmd.AddCommand(linkCmd)
}
