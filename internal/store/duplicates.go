package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DuplicateGroup is one set of rows sharing the same non-empty content_hash
// within a single tenant/workspace, reported by doctor's duplicate-detection
// helper. A read-only report; nothing merges or deletes the rows it names.
type DuplicateGroup struct {
	TenantID    string   `json:"tenant_id"`
	WorkspaceID string   `json:"workspace_id"`
	Layer       string   `json:"layer"`
	ContentHash string   `json:"content_hash"`
	IDs         []string `json:"ids"`
}

// FindDuplicateContentHashes groups L0 events and L1 nodes by
// (tenant_id, workspace_id, content_hash), reporting every group of two or
// more rows sharing a hash. content_hash is otherwise an unindexed,
// unread column; this is its only consumer.
func (s *Store) FindDuplicateContentHashes(ctx context.Context, tx *sql.Tx) ([]DuplicateGroup, error) {
	l0, err := s.duplicatesInTable(ctx, tx, "memory_l0_events", "L0")
	if err != nil {
		return nil, err
	}
	l1, err := s.duplicatesInTable(ctx, tx, "memory_l1_nodes", "L1")
	if err != nil {
		return nil, err
	}
	return append(l0, l1...), nil
}

func (s *Store) duplicatesInTable(ctx context.Context, tx *sql.Tx, table, layer string) ([]DuplicateGroup, error) {
	rows, err := s.q(tx).QueryContext(ctx, fmt.Sprintf(`
		SELECT tenant_id, workspace_id, content_hash, GROUP_CONCAT(id)
		FROM %s
		WHERE content_hash IS NOT NULL AND content_hash != ''
		GROUP BY tenant_id, workspace_id, content_hash
		HAVING COUNT(*) > 1`, table))
	if err != nil {
		return nil, fmt.Errorf("store: find duplicate content hashes in %s: %w", table, err)
	}
	defer rows.Close()

	var groups []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		var idList string
		if err := rows.Scan(&g.TenantID, &g.WorkspaceID, &g.ContentHash, &idList); err != nil {
			return nil, fmt.Errorf("store: scan duplicate group in %s: %w", table, err)
		}
		g.Layer = layer
		g.IDs = strings.Split(idList, ",")
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
