package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/model"
)

var (
	promoteDraft    string
	promoteArtifact string
)

var promoteCmd = &cobra.Command{
	Use:     "promote",
	GroupID: "ingestion",
	Short:   "Validate and promote a draft to canonical L2 memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := parseScope()
		if err != nil {
			printErr(err)
			return nil
		}
		var draft ingestion.PromotionDraft
		if err := json.Unmarshal([]byte(promoteDraft), &draft); err != nil {
			printErr(fmt.Errorf("memlayer: parsing --draft: %w", err))
			return nil
		}
		var artifact *model.ArtifactRef
		if promoteArtifact != "" {
			artifact = &model.ArtifactRef{}
			if err := json.Unmarshal([]byte(promoteArtifact), artifact); err != nil {
				printErr(fmt.Errorf("memlayer: parsing --artifact: %w", err))
				return nil
			}
		}

		eng, err := openEngines(rootCtx)
		if err != nil {
			printErr(err)
			return nil
		}
		defer eng.Close()
		eng.ingest.Permissive = permissiveFlag

		result, err := eng.ingest.PromoteToL2(rootCtx, scope, draft, artifact, idempotencyKeyFlag)
		if err != nil {
			printErr(err)
			return nil
		}
		printOK(result)
		return nil
	},
}

var permissiveFlag bool

func init() {
	promoteCmd.Flags().StringVar(&promoteDraft, "draft", "{}", "promotion draft as JSON (type, title, summary, tags, entities, claims, applicability)")
	promoteCmd.Flags().StringVar(&promoteArtifact, "artifact", "", "optional artifact ref as JSON (layer, kind, locator, hash, classification, snippet_policy)")
	promoteCmd.Flags().BoolVar(&permissiveFlag, "permissive", false, "waive the repo_id/module/environment scope-tightness check")
	rootCmd.AddCommand(promoteCmd)
}
