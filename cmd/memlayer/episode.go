package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/ingestion"
)

var episodeCmd = &cobra.Command{
	Use:     "episode",
	GroupID: "ingestion",
	Short:   "Work with L1 EpisodeSummary nodes",
}

var episodeCommitDraft string

var episodeCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Upsert an EpisodeSummary keyed by session_id, else task_id",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		var draft ingestion.EpisodeDraft
		if err := json.Unmarshal([]byte(episodeCommitDraft), &draft); err != nil {
			printErr(fmt.Errorf("memlayer: parsing --draft: %w", err))
			return nil
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()

		result, err := eng.ingest.CommitEpisode(rootCtx, scope, draft, idempotencyKeyFlag)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

func init() {
	episodeCommitCmd.Flags().StringVar(&episodeCommitDraft, "draft", "{}", "episode draft as JSON (title, summary, tags, entities, claims, applicability)")
	episodeCmd.AddCommand(episodeCommitCmd)
	rootCmd.AddCommand(episodeCmd)
}
