package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/untoldecay/memlayer/internal/model"
)

// ScoreFilter narrows the candidate set search_memory pulls from a layer
// table, beyond the mandatory scope equality.
type ScoreFilter struct {
	RepoID string // "" means no repo filter
	Type   model.MemoryType
	Status model.Status
}

func (f ScoreFilter) apply(query *strings.Builder, args *[]any) {
	if f.RepoID != "" {
		query.WriteString(" AND (n.repo_id = ? OR n.repo_id = '')")
		*args = append(*args, f.RepoID)
	}
	if f.Type != "" {
		query.WriteString(" AND n.type = ?")
		*args = append(*args, string(f.Type))
	}
	if f.Status != "" {
		query.WriteString(" AND n.status = ?")
		*args = append(*args, string(f.Status))
	}
}

// LexicalSearchL1 runs an FTS5 MATCH against memory_l1_fts, joined to its
// canonical row for scope/filter narrowing, returning id -> bm25 rank
// (smaller is better).
func (s *Store) LexicalSearchL1(ctx context.Context, tx *sql.Tx, scope model.Scope, query string, filter ScoreFilter, limit int) (map[string]float64, error) {
	return s.lexicalSearch(ctx, tx, "memory_l1_nodes", "memory_l1_fts", scope, query, filter, limit)
}

// LexicalSearchL2 is LexicalSearchL1 over the L2 tables.
func (s *Store) LexicalSearchL2(ctx context.Context, tx *sql.Tx, scope model.Scope, query string, filter ScoreFilter, limit int) (map[string]float64, error) {
	return s.lexicalSearch(ctx, tx, "memory_l2_nodes", "memory_l2_fts", scope, query, filter, limit)
}

func (s *Store) lexicalSearch(ctx context.Context, tx *sql.Tx, nodeTable, ftsTable string, scope model.Scope, query string, filter ScoreFilter, limit int) (map[string]float64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT n.id, fts.rank FROM %s fts JOIN %s n ON n.id = fts.id
		WHERE fts MATCH ? AND n.tenant_id = ? AND n.workspace_id = ?`, ftsTable, nodeTable)
	args := []any{query, scope.TenantID, scope.WorkspaceID}
	filter.apply(&b, &args)
	b.WriteString(" ORDER BY fts.rank LIMIT ?")
	args = append(args, limit)

	rows, err := s.q(tx).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: lexical search: %w", err)
	}
	defer rows.Close()
	out := map[string]float64{}
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("store: scan lexical result: %w", err)
		}
		out[id] = rank
	}
	return out, rows.Err()
}

// VectorSearchL1 computes L2 (Euclidean) distance between queryEmbedding
// and every non-null embedding in memory_l1_nodes, returning id -> distance
// (smaller is better). Callers must check Store.VectorEnabled() first; if
// the extension is unavailable this returns an error the caller should
// treat as "fall back to lexical-only", never a hard failure.
func (s *Store) VectorSearchL1(ctx context.Context, tx *sql.Tx, scope model.Scope, queryEmbedding []float32, filter ScoreFilter, limit int) (map[string]float64, error) {
	return s.vectorSearch(ctx, tx, "memory_l1_nodes", scope, queryEmbedding, filter, limit)
}

// VectorSearchL2 is VectorSearchL1 over memory_l2_nodes.
func (s *Store) VectorSearchL2(ctx context.Context, tx *sql.Tx, scope model.Scope, queryEmbedding []float32, filter ScoreFilter, limit int) (map[string]float64, error) {
	return s.vectorSearch(ctx, tx, "memory_l2_nodes", scope, queryEmbedding, filter, limit)
}

func (s *Store) vectorSearch(ctx context.Context, tx *sql.Tx, nodeTable string, scope model.Scope, queryEmbedding []float32, filter ScoreFilter, limit int) (map[string]float64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `SELECT n.id, vec_distance_l2(n.embedding, ?) AS dist FROM %s n
		WHERE n.embedding IS NOT NULL AND n.tenant_id = ? AND n.workspace_id = ?`, nodeTable)
	args := []any{encodeEmbedding(queryEmbedding), scope.TenantID, scope.WorkspaceID}
	filter.apply(&b, &args)
	b.WriteString(" ORDER BY dist LIMIT ?")
	args = append(args, limit)

	rows, err := s.q(tx).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: vector search: %w", err)
	}
	defer rows.Close()
	out := map[string]float64{}
	for rows.Next() {
		var id string
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, fmt.Errorf("store: scan vector result: %w", err)
		}
		out[id] = dist
	}
	return out, rows.Err()
}
