package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
)

// InsertTombstone records a forget selector, absorbing a primary-key
// collision silently: forgetting the same selector twice is a no-op, not
// an error, matching the idempotent contract of forget_memory.
func (s *Store) InsertTombstone(ctx context.Context, tx *sql.Tx, t *model.Tombstone) error {
	_, err := s.q(tx).ExecContext(ctx, `
		INSERT INTO memory_tombstones (tenant_id, workspace_id, selector_hash, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, workspace_id, selector_hash) DO NOTHING`,
		t.TenantID, t.WorkspaceID, t.SelectorHash, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert tombstone: %w", err)
	}
	return nil
}
