package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
)

// UpsertArtifact inserts an artifact reference, or replaces its hash and
// policy fields if one already exists for the same (memory_id, kind, locator).
func (s *Store) UpsertArtifact(ctx context.Context, tx *sql.Tx, a *model.ArtifactRef) error {
	_, err := s.q(tx).ExecContext(ctx, `
		INSERT INTO memory_artifacts
			(memory_id, layer, kind, locator, hash, classification, snippet_policy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (memory_id, kind, locator)
		DO UPDATE SET hash = excluded.hash, classification = excluded.classification,
			snippet_policy = excluded.snippet_policy`,
		a.MemoryID, string(a.Layer), a.Kind, a.Locator, a.Hash,
		string(a.Classification), string(a.SnippetPolicy), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: upsert artifact: %w", err)
	}
	return nil
}

// ArtifactsFor returns every artifact reference attached to a memory id.
func (s *Store) ArtifactsFor(ctx context.Context, tx *sql.Tx, memoryID string) ([]*model.ArtifactRef, error) {
	rows, err := s.q(tx).QueryContext(ctx, `
		SELECT memory_id, layer, kind, locator, hash, classification, snippet_policy, created_at
		FROM memory_artifacts WHERE memory_id = ?`, memoryID)
	if err != nil {
		return nil, fmt.Errorf("store: query artifacts: %w", err)
	}
	defer rows.Close()
	var out []*model.ArtifactRef
	for rows.Next() {
		a := &model.ArtifactRef{}
		var layer, classification, policy string
		if err := rows.Scan(&a.MemoryID, &layer, &a.Kind, &a.Locator, &a.Hash, &classification, &policy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan artifact: %w", err)
		}
		a.Layer = model.Layer(layer)
		a.Classification = model.Classification(classification)
		a.SnippetPolicy = model.SnippetPolicy(policy)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteArtifactsFor removes every artifact reference attached to a memory id.
func (s *Store) DeleteArtifactsFor(ctx context.Context, tx *sql.Tx, memoryID string) error {
	if _, err := s.q(tx).ExecContext(ctx, `DELETE FROM memory_artifacts WHERE memory_id = ?`, memoryID); err != nil {
		return fmt.Errorf("store: delete artifacts: %w", err)
	}
	return nil
}
