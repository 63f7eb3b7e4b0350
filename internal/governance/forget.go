package governance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
)

// ForgetResult reports how many rows were affected at each tier plus the
// tombstone hash recorded for the selector.
type ForgetResult struct {
	TombstoneHash string `json:"tombstone_hash"`
	L0Deleted     int    `json:"l0_deleted"`
	L1Deleted     int    `json:"l1_deleted"`
	L2Tombstoned  int    `json:"l2_tombstoned"`
}

// ForgetMemory records a tombstone for the selector, then applies it
// across L0 (hard delete, scope-representable
// selectors only), L1 (always fully filterable), and L2 (soft-delete,
// only when the selector does not narrow by user_id).
func (e *Engine) ForgetMemory(ctx context.Context, scope model.Scope, sel Selector) (*ForgetResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}
	hash, err := sel.Hash()
	if err != nil {
		return nil, fmt.Errorf("governance: forget_memory selector hash: %w", err)
	}

	var result ForgetResult
	err = e.store.WithTx(ctx, func(tx *sql.Tx) error {
		result.TombstoneHash = hash
		if err := e.store.InsertTombstone(ctx, tx, &model.Tombstone{
			TenantID: scope.TenantID, WorkspaceID: scope.WorkspaceID,
			SelectorHash: hash, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("governance: forget_memory tombstone: %w", err)
		}

		// L0 has no user_id column: skip deletion entirely if the selector
		// narrows by it (unlike L1, which always applies the full selector).
		if sel.UserID == "" {
			where, args := sel.whereClause(false)
			n, err := e.store.DeleteEventsByScopeWhere(ctx, tx, scope, where, args)
			if err != nil {
				return fmt.Errorf("governance: forget_memory L0: %w", err)
			}
			result.L0Deleted = n
		}

		l1Where, l1Args := sel.whereClause(true)
		n, err := e.store.DeleteL1(ctx, tx, scope, l1Where, l1Args)
		if err != nil {
			return fmt.Errorf("governance: forget_memory L1: %w", err)
		}
		result.L1Deleted = n

		if sel.UserID == "" {
			l2Where, l2Args := sel.whereClause(false)
			n, err := e.store.BulkSetL2Status(ctx, tx, scope, l2Where, l2Args, model.StatusTombstoned)
			if err != nil {
				return fmt.Errorf("governance: forget_memory L2: %w", err)
			}
			result.L2Tombstoned = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
