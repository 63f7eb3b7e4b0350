package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
)

// InsertL1 inserts a new L1 node (Observation or EpisodeSummary) and its
// FTS projection in lockstep, per the FTS-exists-iff-row-exists invariant.
func (s *Store) InsertL1(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
	tags, err := marshalStrings(m.Tags)
	if err != nil {
		return err
	}
	entities, err := marshalStrings(m.Entities)
	if err != nil {
		return err
	}
	claims, err := marshalStrings(m.Claims)
	if err != nil {
		return err
	}
	appl, err := marshalApplicability(m.Applicability)
	if err != nil {
		return err
	}

	q := s.q(tx)
	_, err = q.ExecContext(ctx, `
		INSERT INTO memory_l1_nodes
			(id, tenant_id, workspace_id, repo_id, module, environment, user_id,
			 session_id, task_id, type, status, title, summary, tags, entities,
			 claims, applicability, confidence, evidence_count, confirmation_count,
			 created_at, updated_at, last_confirmed_at, ttl_seconds, content_hash,
			 compaction_level)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.Scope.TenantID, m.Scope.WorkspaceID, m.Scope.RepoID, m.Scope.Module,
		m.Scope.Environment, m.Scope.UserID, m.Scope.SessionID, m.Scope.TaskID,
		string(m.Type), string(m.Status), m.Title, m.Summary, tags, entities, claims, appl,
		m.Confidence, m.EvidenceCount, m.ConfirmationCount,
		m.CreatedAt, m.UpdatedAt, m.LastConfirmedAt, m.TTLSeconds, m.ContentHash,
		m.CompactionLevel,
	)
	if err != nil {
		return fmt.Errorf("store: insert L1 node: %w", err)
	}

	if len(m.Embedding) > 0 {
		if _, err := q.ExecContext(ctx, `UPDATE memory_l1_nodes SET embedding = ? WHERE id = ?`,
			encodeEmbedding(m.Embedding), m.ID); err != nil {
			return fmt.Errorf("store: set L1 embedding: %w", err)
		}
	}

	if err := s.upsertL1FTS(ctx, tx, m); err != nil {
		return err
	}
	return nil
}

// UpdateL1 overwrites the mutable fields of an existing L1 node (used by
// commit_episode merges; deprecation and archival go through SetL1Status)
// and keeps the FTS projection synchronized.
func (s *Store) UpdateL1(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
	tags, err := marshalStrings(m.Tags)
	if err != nil {
		return err
	}
	entities, err := marshalStrings(m.Entities)
	if err != nil {
		return err
	}
	claims, err := marshalStrings(m.Claims)
	if err != nil {
		return err
	}
	appl, err := marshalApplicability(m.Applicability)
	if err != nil {
		return err
	}

	q := s.q(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE memory_l1_nodes SET
			status = ?, title = ?, summary = ?, tags = ?, entities = ?, claims = ?,
			applicability = ?, confidence = ?, evidence_count = ?, confirmation_count = ?,
			updated_at = ?, last_confirmed_at = ?, ttl_seconds = ?
		WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		string(m.Status), m.Title, m.Summary, tags, entities, claims, appl,
		m.Confidence, m.EvidenceCount, m.ConfirmationCount, m.UpdatedAt, m.LastConfirmedAt,
		m.TTLSeconds, m.ID, m.Scope.TenantID, m.Scope.WorkspaceID,
	)
	if err != nil {
		return fmt.Errorf("store: update L1 node: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return s.upsertL1FTS(ctx, tx, m)
}

// SetL1Status transitions an L1 node's status (deprecate, archive) without
// touching its descriptive fields.
func (s *Store) SetL1Status(ctx context.Context, tx *sql.Tx, scope model.Scope, id string, status model.Status) error {
	res, err := s.q(tx).ExecContext(ctx, `
		UPDATE memory_l1_nodes SET status = ? WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		string(status), id, scope.TenantID, scope.WorkspaceID)
	if err != nil {
		return fmt.Errorf("store: set L1 status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) upsertL1FTS(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
	q := s.q(tx)
	if _, err := q.ExecContext(ctx, `DELETE FROM memory_l1_fts WHERE id = ?`, m.ID); err != nil {
		return fmt.Errorf("store: clear L1 fts: %w", err)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO memory_l1_fts (id, title, summary, tags_text, entities_text)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Summary, ftsText(m.Tags), ftsText(m.Entities))
	if err != nil {
		return fmt.Errorf("store: insert L1 fts: %w", err)
	}
	return nil
}

func (s *Store) deleteL1FTS(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := s.q(tx).ExecContext(ctx, `DELETE FROM memory_l1_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete L1 fts: %w", err)
	}
	return nil
}

func scanL1(row interface {
	Scan(dest ...any) error
}) (*model.Memory, error) {
	m := &model.Memory{Layer: model.LayerL1}
	var tags, entities, claims, appl, status, typ string
	var embedding []byte
	if err := row.Scan(
		&m.ID, &m.Scope.TenantID, &m.Scope.WorkspaceID, &m.Scope.RepoID, &m.Scope.Module,
		&m.Scope.Environment, &m.Scope.UserID, &m.Scope.SessionID, &m.Scope.TaskID,
		&typ, &status, &m.Title, &m.Summary, &tags, &entities, &claims, &appl,
		&m.Confidence, &m.EvidenceCount, &m.ConfirmationCount,
		&m.CreatedAt, &m.UpdatedAt, &m.LastConfirmedAt, &m.TTLSeconds, &embedding,
		&m.CompactionLevel,
	); err != nil {
		return nil, err
	}
	m.Type = model.MemoryType(typ)
	m.Status = model.Status(status)
	var err error
	if m.Tags, err = unmarshalStrings(tags); err != nil {
		return nil, err
	}
	if m.Entities, err = unmarshalStrings(entities); err != nil {
		return nil, err
	}
	if m.Claims, err = unmarshalStrings(claims); err != nil {
		return nil, err
	}
	if m.Applicability, err = unmarshalApplicability(appl); err != nil {
		return nil, err
	}
	m.Embedding = decodeEmbedding(embedding)
	return m, nil
}

const l1SelectColumns = `
	id, tenant_id, workspace_id, repo_id, module, environment, user_id, session_id, task_id,
	type, status, title, summary, tags, entities, claims, applicability,
	confidence, evidence_count, confirmation_count, created_at, updated_at,
	last_confirmed_at, ttl_seconds, embedding, compaction_level`

// GetL1 fetches a single L1 node by id within scope.
func (s *Store) GetL1(ctx context.Context, tx *sql.Tx, scope model.Scope, id string) (*model.Memory, error) {
	row := s.q(tx).QueryRowContext(ctx, `SELECT `+l1SelectColumns+`
		FROM memory_l1_nodes WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		id, scope.TenantID, scope.WorkspaceID)
	m, err := scanL1(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get L1 node: %w", err)
	}
	return m, nil
}

// FindEpisodeBySession finds the most recently created EpisodeSummary keyed
// by session_id, whatever its status.
func (s *Store) FindEpisodeBySession(ctx context.Context, tx *sql.Tx, scope model.Scope, sessionID string) (*model.Memory, error) {
	return s.findEpisode(ctx, tx, scope, "session_id", sessionID)
}

// FindEpisodeByTask finds the most recently created EpisodeSummary keyed
// by task_id, whatever its status.
func (s *Store) FindEpisodeByTask(ctx context.Context, tx *sql.Tx, scope model.Scope, taskID string) (*model.Memory, error) {
	return s.findEpisode(ctx, tx, scope, "task_id", taskID)
}

func (s *Store) findEpisode(ctx context.Context, tx *sql.Tx, scope model.Scope, keyCol, keyVal string) (*model.Memory, error) {
	row := s.q(tx).QueryRowContext(ctx, `SELECT `+l1SelectColumns+`
		FROM memory_l1_nodes
		WHERE tenant_id = ? AND workspace_id = ? AND `+keyCol+` = ? AND type = ?
		ORDER BY created_at DESC LIMIT 1`,
		scope.TenantID, scope.WorkspaceID, keyVal, string(model.TypeEpisodeSummary))
	m, err := scanL1(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find episode: %w", err)
	}
	return m, nil
}

// DeleteL1 hard-deletes every L1 row matching scope plus an optional extra
// WHERE fragment (built by the caller from a forget selector), along with
// its FTS projection and any artifact references attached to it. extraWhere
// must reference only columns that exist on memory_l1_nodes; pass "" to
// delete every row in scope.
func (s *Store) DeleteL1(ctx context.Context, tx *sql.Tx, scope model.Scope, extraWhere string, args []any) (int, error) {
	ids, err := s.l1IDsMatching(ctx, tx, scope, extraWhere, args)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	q := s.q(tx)
	deleted := 0
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `DELETE FROM memory_l1_nodes WHERE id = ?`, id); err != nil {
			return deleted, fmt.Errorf("store: delete L1 node: %w", err)
		}
		if err := s.deleteL1FTS(ctx, tx, id); err != nil {
			return deleted, err
		}
		if err := s.DeleteArtifactsFor(ctx, tx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *Store) l1IDsMatching(ctx context.Context, tx *sql.Tx, scope model.Scope, extraWhere string, args []any) ([]string, error) {
	query := `SELECT id FROM memory_l1_nodes WHERE tenant_id = ? AND workspace_id = ?`
	allArgs := []any{scope.TenantID, scope.WorkspaceID}
	if extraWhere != "" {
		query += " AND " + extraWhere
		allArgs = append(allArgs, args...)
	}
	rows, err := s.q(tx).QueryContext(ctx, query, allArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: select L1 ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan L1 id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveObservationsForCompaction returns every active Observation in
// scope, for grouping by (day, repo_id, module) at the governance layer.
func (s *Store) ListActiveObservationsForCompaction(ctx context.Context, tx *sql.Tx, scope model.Scope) ([]*model.Memory, error) {
	rows, err := s.q(tx).QueryContext(ctx, `SELECT `+l1SelectColumns+`
		FROM memory_l1_nodes
		WHERE tenant_id = ? AND workspace_id = ? AND type = ? AND status = ?
		ORDER BY created_at ASC`,
		scope.TenantID, scope.WorkspaceID, string(model.TypeObservation), string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("store: list observations: %w", err)
	}
	defer rows.Close()
	var out []*model.Memory
	for rows.Next() {
		m, err := scanL1(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan observation: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
