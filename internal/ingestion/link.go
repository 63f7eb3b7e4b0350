package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

// LinkMemories creates or reweights an L2 edge between two existing L2
// nodes and projects it to the graph accelerator.
func (e *Engine) LinkMemories(ctx context.Context, scope model.Scope, fromID, toID, rel string, weight float64, key string) (*LinkResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}
	rel = model.SanitizeRel(rel)

	var result LinkResult
	linked := false
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if key != "" {
			if cached, found, err := e.idem.Check(ctx, tx, scope.TenantID, key); err != nil {
				return err
			} else if found {
				return json.Unmarshal(cached, &result)
			}
		}

		fromOK, err := e.store.L2Exists(ctx, tx, scope, fromID)
		if err != nil {
			return fmt.Errorf("ingestion: link_memories: %w", err)
		}
		toOK, err := e.store.L2Exists(ctx, tx, scope, toID)
		if err != nil {
			return fmt.Errorf("ingestion: link_memories: %w", err)
		}
		if !fromOK || !toOK {
			return fmt.Errorf("ingestion: link_memories: %w", store.ErrNotFound)
		}

		edge := &model.Edge{
			TenantID: scope.TenantID, WorkspaceID: scope.WorkspaceID,
			FromID: fromID, ToID: toID, Rel: rel, Weight: weight, CreatedAt: time.Now().UTC(),
		}
		if err := edge.Validate(); err != nil {
			return fmt.Errorf("ingestion: link_memories: %w", err)
		}
		if err := e.store.UpsertEdge(ctx, tx, edge); err != nil {
			return fmt.Errorf("ingestion: link_memories: %w", err)
		}

		result = LinkResult{FromID: fromID, ToID: toID, Rel: rel}
		linked = true

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
	if linked {
		e.projectEdge(ctx, fromID, toID, rel, weight)
	}
	return &result, nil
}
