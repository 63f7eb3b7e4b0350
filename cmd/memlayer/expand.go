package main

import (
	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/retrieval"
)

var (
	expandSeed   string
	expandHops   int
	expandView   string
	expandBudget int
)

var expandCmd = &cobra.Command{
	Use:     "expand",
	GroupID: "retrieval",
	Short:   "Walk the L2 relationship graph outward from a seed memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		view, err := parseView(expandView)
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

		result, err := graph.ExpandMemory(rootCtx, eng.store, eng.graph, scope, expandSeed, expandHops, view, expandBudget)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	expandCmd.Flags().StringVar(&expandSeed, "seed", "", "seed memory id to expand from (required)")
	expandCmd.Flags().IntVar(&expandHops, "hops", 1, "number of hops to traverse")
	expandCmd.Flags().StringVar(&expandView, "view", string(retrieval.ViewIndex), "result view: index, detail, or evidence")
	expandCmd.Flags().IntVar(&expandBudget, "budget", 4000, "token budget for the packaged result")
	expandCmd.MarkFlagRequired("seed")
	rootCmd.AddCommand(expandCmd)
}
