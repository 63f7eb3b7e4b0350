package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
)

// InsertL2 inserts a new canonical L2 node and its FTS projection.
func (s *Store) InsertL2(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
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
		INSERT INTO memory_l2_nodes
			(id, tenant_id, workspace_id, repo_id, module, environment, user_id,
			 type, status, version, supersedes_id, title, summary, tags, entities,
			 claims, applicability, confidence, evidence_count, confirmation_count,
			 created_at, updated_at, last_confirmed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.Scope.TenantID, m.Scope.WorkspaceID, m.Scope.RepoID, m.Scope.Module,
		m.Scope.Environment, m.Scope.UserID,
		string(m.Type), string(m.Status), m.Version, m.SupersedesID, m.Title, m.Summary,
		tags, entities, claims, appl,
		m.Confidence, m.EvidenceCount, m.ConfirmationCount,
		m.CreatedAt, m.UpdatedAt, m.LastConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert L2 node: %w", err)
	}

	if len(m.Embedding) > 0 {
		if _, err := q.ExecContext(ctx, `UPDATE memory_l2_nodes SET embedding = ? WHERE id = ?`,
			encodeEmbedding(m.Embedding), m.ID); err != nil {
			return fmt.Errorf("store: set L2 embedding: %w", err)
		}
	}

	return s.upsertL2FTS(ctx, tx, m)
}

// UpdateL2 overwrites the mutable fields of an existing L2 node (used by
// deprecate_memory's supersession wiring; status changes alone go through
// SetL2Status) and keeps the FTS projection synchronized.
func (s *Store) UpdateL2(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
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

	res, err := s.q(tx).ExecContext(ctx, `
		UPDATE memory_l2_nodes SET
			status = ?, version = ?, supersedes_id = ?, title = ?, summary = ?,
			tags = ?, entities = ?, claims = ?, applicability = ?, confidence = ?,
			evidence_count = ?, confirmation_count = ?, updated_at = ?, last_confirmed_at = ?
		WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		string(m.Status), m.Version, m.SupersedesID, m.Title, m.Summary,
		tags, entities, claims, appl, m.Confidence, m.EvidenceCount, m.ConfirmationCount,
		m.UpdatedAt, m.LastConfirmedAt, m.ID, m.Scope.TenantID, m.Scope.WorkspaceID,
	)
	if err != nil {
		return fmt.Errorf("store: update L2 node: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return s.upsertL2FTS(ctx, tx, m)
}

// SetL2Status transitions an L2 node's status (deprecate, tombstone).
func (s *Store) SetL2Status(ctx context.Context, tx *sql.Tx, scope model.Scope, id string, status model.Status) error {
	res, err := s.q(tx).ExecContext(ctx, `
		UPDATE memory_l2_nodes SET status = ? WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		string(status), id, scope.TenantID, scope.WorkspaceID)
	if err != nil {
		return fmt.Errorf("store: set L2 status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) upsertL2FTS(ctx context.Context, tx *sql.Tx, m *model.Memory) error {
	q := s.q(tx)
	if _, err := q.ExecContext(ctx, `DELETE FROM memory_l2_fts WHERE id = ?`, m.ID); err != nil {
		return fmt.Errorf("store: clear L2 fts: %w", err)
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO memory_l2_fts (id, title, summary, tags_text, entities_text)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Summary, ftsText(m.Tags), ftsText(m.Entities))
	if err != nil {
		return fmt.Errorf("store: insert L2 fts: %w", err)
	}
	return nil
}

const l2SelectColumns = `
	id, tenant_id, workspace_id, repo_id, module, environment, user_id,
	type, status, version, supersedes_id, title, summary, tags, entities, claims,
	applicability, confidence, evidence_count, confirmation_count,
	created_at, updated_at, last_confirmed_at, embedding`

func scanL2(row interface {
	Scan(dest ...any) error
}) (*model.Memory, error) {
	m := &model.Memory{Layer: model.LayerL2}
	var tags, entities, claims, appl, status, typ string
	var embedding []byte
	if err := row.Scan(
		&m.ID, &m.Scope.TenantID, &m.Scope.WorkspaceID, &m.Scope.RepoID, &m.Scope.Module,
		&m.Scope.Environment, &m.Scope.UserID,
		&typ, &status, &m.Version, &m.SupersedesID, &m.Title, &m.Summary,
		&tags, &entities, &claims, &appl,
		&m.Confidence, &m.EvidenceCount, &m.ConfirmationCount,
		&m.CreatedAt, &m.UpdatedAt, &m.LastConfirmedAt, &embedding,
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

// GetL2 fetches a single L2 node by id within scope.
func (s *Store) GetL2(ctx context.Context, tx *sql.Tx, scope model.Scope, id string) (*model.Memory, error) {
	row := s.q(tx).QueryRowContext(ctx, `SELECT `+l2SelectColumns+`
		FROM memory_l2_nodes WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		id, scope.TenantID, scope.WorkspaceID)
	m, err := scanL2(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get L2 node: %w", err)
	}
	return m, nil
}

// L2Exists reports whether an L2 node with the given id exists in scope,
// without fetching its full row; used by edge endpoint validation.
func (s *Store) L2Exists(ctx context.Context, tx *sql.Tx, scope model.Scope, id string) (bool, error) {
	var one int
	err := s.q(tx).QueryRowContext(ctx, `
		SELECT 1 FROM memory_l2_nodes WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		id, scope.TenantID, scope.WorkspaceID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: check L2 existence: %w", err)
	}
	return true, nil
}

// BulkSetL2Status transitions every L2 node matching scope plus an
// optional extra WHERE fragment to status, keeping the FTS row untouched
// (status is not part of the FTS projection). Used by forget_memory's
// soft-delete of L2 rows that are not user-scoped.
func (s *Store) BulkSetL2Status(ctx context.Context, tx *sql.Tx, scope model.Scope, extraWhere string, args []any, status model.Status) (int, error) {
	query := `UPDATE memory_l2_nodes SET status = ? WHERE tenant_id = ? AND workspace_id = ?`
	allArgs := []any{string(status), scope.TenantID, scope.WorkspaceID}
	if extraWhere != "" {
		query += " AND " + extraWhere
		allArgs = append(allArgs, args...)
	}
	res, err := s.q(tx).ExecContext(ctx, query, allArgs...)
	if err != nil {
		return 0, fmt.Errorf("store: bulk set L2 status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: bulk set L2 status rows affected: %w", err)
	}
	return int(n), nil
}
