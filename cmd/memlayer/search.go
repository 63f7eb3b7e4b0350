package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
)

var (
	searchQuery  string
	searchView   string
	searchBudget int
	searchTopK   int
	searchType   string
	searchStatus string
)

var searchCmd = &cobra.Command{
	Use:     "search",
	GroupID: "retrieval",
	Short:   "Hybrid lexical+vector search across L1 and L2",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		view, err := parseView(searchView)
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

		filters := retrieval.Filters{
			Type:   model.MemoryType(searchType),
			Status: model.Status(searchStatus),
		}
		result, err := eng.retrieve.SearchMemory(rootCtx, nil, scope, searchQuery, view, searchBudget, searchTopK, filters)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

// parseView validates a --view flag against retrieval's three tiers.
func parseView(v string) (retrieval.View, error) {
	switch retrieval.View(v) {
	case retrieval.ViewIndex, retrieval.ViewDetail, retrieval.ViewEvidence:
		return retrieval.View(v), nil
	default:
		return "", fmt.Errorf("memlayer: --view must be one of index, detail, evidence (got %q)", v)
	}
}

func init() {
	searchCmd.Flags().StringVar(&searchQuery, "query", "", "search query text (required)")
	searchCmd.Flags().StringVar(&searchView, "view", string(retrieval.ViewIndex), "result view: index, detail, or evidence")
	searchCmd.Flags().IntVar(&searchBudget, "budget", 4000, "token budget for the packaged result")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 10, "maximum number of ranked results (2x this many candidates are fetched per layer)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "optional memory type filter")
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "optional status filter")
	searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}
