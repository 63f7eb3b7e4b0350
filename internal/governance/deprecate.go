package governance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

// DeprecateResult reports which tier resolved the id.
type DeprecateResult struct {
	ID    string      `json:"id"`
	Layer model.Layer `json:"layer"`
}

// DeprecateMemory marks an L1 or L2 node deprecated, wiring supersession
// on the replacement node for L2. Returns
// store.ErrNotFound if id resolves in neither tier.
func (e *Engine) DeprecateMemory(ctx context.Context, scope model.Scope, id, reason string, supersededBy *string) (*DeprecateResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}

	var result DeprecateResult
	var projected *graph.Node
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := e.store.SetL1Status(ctx, tx, scope, id, model.StatusDeprecated); err == nil {
			result = DeprecateResult{ID: id, Layer: model.LayerL1}
			return nil
		} else if err != store.ErrNotFound {
			return fmt.Errorf("governance: deprecate_memory L1: %w", err)
		}

		if err := e.store.SetL2Status(ctx, tx, scope, id, model.StatusDeprecated); err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("governance: deprecate_memory: %w", store.ErrNotFound)
			}
			return fmt.Errorf("governance: deprecate_memory L2: %w", err)
		}
		result = DeprecateResult{ID: id, Layer: model.LayerL2}

		node, err := e.store.GetL2(ctx, tx, scope, id)
		if err != nil {
			return fmt.Errorf("governance: deprecate_memory reload: %w", err)
		}
		projected = &graph.Node{ID: node.ID, Type: string(node.Type), Title: node.Title, Tags: node.Tags, Confidence: node.Confidence}

		if supersededBy != nil {
			replacement, err := e.store.GetL2(ctx, tx, scope, *supersededBy)
			if err != nil {
				return fmt.Errorf("governance: deprecate_memory supersession: %w", err)
			}
			replacement.SupersedesID = &id
			if err := e.store.UpdateL2(ctx, tx, replacement); err != nil {
				return fmt.Errorf("governance: deprecate_memory supersession: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Best-effort post-commit refresh so the accelerator's cached copy of a
	// deprecated node tracks the authoritative row.
	if projected != nil && e.graph.Enabled() {
		e.graph.UpsertNode(ctx, *projected)
	}
	return &result, nil
}
