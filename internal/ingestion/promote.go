package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/model"
)

// PromoteToL2 validates a promotion draft and, on acceptance, creates a
// canonical L2 node, links the supplied artifact to it, and projects it to
// the graph accelerator.
func (e *Engine) PromoteToL2(ctx context.Context, scope model.Scope, draft PromotionDraft, artifact *model.ArtifactRef, key string) (*PromoteResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}
	if !model.L2Types[draft.Type] {
		return nil, fmt.Errorf("%w: type %q is not a canonical L2 type", ErrPromotionValidation, draft.Type)
	}
	if len(draft.Claims) == 0 {
		return nil, fmt.Errorf("%w: No claims provided", ErrPromotionValidation)
	}
	if !e.Permissive {
		if scope.RepoID == "" || (scope.Module == "" && scope.Environment == "") {
			return nil, fmt.Errorf("%w: promotion requires repo_id and one of module/environment outside permissive mode", ErrPromotionValidation)
		}
	}

	var result PromoteResult
	var projected graph.Node
	created := false
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if key != "" {
			if cached, found, err := e.idem.Check(ctx, tx, scope.TenantID, key); err != nil {
				return err
			} else if found {
				return json.Unmarshal(cached, &result)
			}
		}

		now := time.Now().UTC()
		node := &model.Memory{
			ID:                uuid.NewString(),
			Scope:             scope,
			Layer:             model.LayerL2,
			Type:              draft.Type,
			Status:            model.StatusActive,
			Version:           1,
			Title:             draft.Title,
			Summary:           draft.Summary,
			Tags:              draft.Tags,
			Entities:          draft.Entities,
			Claims:            draft.Claims,
			Applicability:     draft.Applicability,
			Confidence:        1.0,
			EvidenceCount:     1,
			ConfirmationCount: 1,
			CreatedAt:         now,
			UpdatedAt:         now,
			LastConfirmedAt:   now,
			Embedding:         draft.Embedding,
			SupersedesID:      draft.SupersedesID,
		}
		if err := node.Validate(); err != nil {
			return fmt.Errorf("ingestion: promote_to_l2: %w", err)
		}
		if err := e.store.InsertL2(ctx, tx, node); err != nil {
			return fmt.Errorf("ingestion: promote_to_l2: %w", err)
		}

		if artifact != nil {
			artifact.MemoryID = node.ID
			artifact.Layer = model.LayerL2
			artifact.CreatedAt = now
			if err := e.store.UpsertArtifact(ctx, tx, artifact); err != nil {
				return fmt.Errorf("ingestion: promote_to_l2 artifact: %w", err)
			}
		}

		result = PromoteResult{ID: node.ID}
		projected = graph.Node{ID: node.ID, Type: string(node.Type), Title: node.Title, Tags: node.Tags, Confidence: node.Confidence}
		created = true

		if key != "" {
			if err := e.idem.Record(ctx, tx, scope.TenantID, key, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.projectNode(ctx, projected)
	}
	return &result, nil
}
