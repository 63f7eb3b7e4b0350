package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
)

// UpsertEdge inserts an L2 edge or, if one already exists for the same
// (from_id, rel, to_id) triple, replaces its weight. Both endpoints must
// already exist as L2 nodes in scope; callers check this with L2Exists
// before calling and report NOT_FOUND if either side is missing.
func (s *Store) UpsertEdge(ctx context.Context, tx *sql.Tx, e *model.Edge) error {
	_, err := s.q(tx).ExecContext(ctx, `
		INSERT INTO memory_l2_edges (tenant_id, workspace_id, from_id, rel, to_id, weight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, workspace_id, from_id, rel, to_id)
		DO UPDATE SET weight = excluded.weight`,
		e.TenantID, e.WorkspaceID, e.FromID, e.Rel, e.ToID, e.Weight, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: upsert edge: %w", err)
	}
	return nil
}

// EdgesFrom returns every edge whose from_id matches seed, optionally
// filtered to a single relation.
func (s *Store) EdgesFrom(ctx context.Context, tx *sql.Tx, scope model.Scope, seedID, rel string) ([]*model.Edge, error) {
	query := `SELECT tenant_id, workspace_id, from_id, rel, to_id, weight, created_at
		FROM memory_l2_edges WHERE tenant_id = ? AND workspace_id = ? AND from_id = ?`
	args := []any{scope.TenantID, scope.WorkspaceID, seedID}
	if rel != "" {
		query += " AND rel = ?"
		args = append(args, rel)
	}
	rows, err := s.q(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query edges: %w", err)
	}
	defer rows.Close()
	var out []*model.Edge
	for rows.Next() {
		e := &model.Edge{}
		if err := rows.Scan(&e.TenantID, &e.WorkspaceID, &e.FromID, &e.Rel, &e.ToID, &e.Weight, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
