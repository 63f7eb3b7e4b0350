package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

// CommitEpisode upserts an EpisodeSummary keyed by session_id, falling
// back to task_id when no session is set.
func (e *Engine) CommitEpisode(ctx context.Context, scope model.Scope, draft EpisodeDraft, key string) (*CommitEpisodeResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	var result CommitEpisodeResult
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if key != "" {
			if cached, found, err := e.idem.Check(ctx, tx, scope.TenantID, key); err != nil {
				return err
			} else if found {
				return json.Unmarshal(cached, &result)
			}
		}

		var existing *model.Memory
		var err error
		switch {
		case scope.SessionID != "":
			existing, err = e.store.FindEpisodeBySession(ctx, tx, scope, scope.SessionID)
		case scope.TaskID != "":
			existing, err = e.store.FindEpisodeByTask(ctx, tx, scope, scope.TaskID)
		default:
			err = store.ErrNotFound
		}
		if err != nil && err != store.ErrNotFound {
			return fmt.Errorf("ingestion: commit_episode lookup: %w", err)
		}

		now := time.Now().UTC()
		if existing != nil {
			existing.Title = draft.Title
			existing.Summary = draft.Summary
			existing.Tags = draft.Tags
			existing.Entities = draft.Entities
			existing.Claims = draft.Claims
			existing.Applicability = draft.Applicability
			existing.UpdatedAt = now
			existing.LastConfirmedAt = now
			existing.ConfirmationCount++
			if err := existing.Validate(); err != nil {
				return fmt.Errorf("ingestion: commit_episode update: %w", err)
			}
			if err := e.store.UpdateL1(ctx, tx, existing); err != nil {
				return fmt.Errorf("ingestion: commit_episode update: %w", err)
			}
			result = CommitEpisodeResult{ID: existing.ID, Action: "updated"}
		} else {
			ep := &model.Memory{
				ID:                uuid.NewString(),
				Scope:             scope,
				Layer:             model.LayerL1,
				Type:              model.TypeEpisodeSummary,
				Status:            model.StatusActive,
				Title:             draft.Title,
				Summary:           draft.Summary,
				Tags:              draft.Tags,
				Entities:          draft.Entities,
				Claims:            draft.Claims,
				Applicability:     draft.Applicability,
				Confidence:        1.0,
				EvidenceCount:     0,
				ConfirmationCount: 1,
				CreatedAt:         now,
				UpdatedAt:         now,
				LastConfirmedAt:   now,
			}
			if err := ep.Validate(); err != nil {
				return fmt.Errorf("ingestion: commit_episode create: %w", err)
			}
			if err := e.store.InsertL1(ctx, tx, ep); err != nil {
				return fmt.Errorf("ingestion: commit_episode create: %w", err)
			}
			result = CommitEpisodeResult{ID: ep.ID, Action: "created"}
		}

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
	return &result, nil
}
