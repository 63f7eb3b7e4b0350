package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
)

// InsertEvent inserts a raw L0 event. Events are never mutated after
// insert; ExpiresAt defaults to CreatedAt + 24h at the ingestion layer.
func (s *Store) InsertEvent(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	_, err := s.q(tx).ExecContext(ctx, `
		INSERT INTO memory_l0_events
			(id, tenant_id, workspace_id, repo_id, session_id, task_id, payload,
			 source_session, content_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Scope.TenantID, e.Scope.WorkspaceID, e.Scope.RepoID, e.Scope.SessionID, e.Scope.TaskID,
		e.Payload, e.SourceSession, e.ContentHash, e.CreatedAt, e.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}
	return nil
}

// GetEvent fetches a single L0 event by id within scope.
func (s *Store) GetEvent(ctx context.Context, tx *sql.Tx, scope model.Scope, id string) (*model.Event, error) {
	row := s.q(tx).QueryRowContext(ctx, `
		SELECT id, tenant_id, workspace_id, repo_id, session_id, task_id, payload,
		       source_session, content_hash, created_at, expires_at
		FROM memory_l0_events
		WHERE id = ? AND tenant_id = ? AND workspace_id = ?`,
		id, scope.TenantID, scope.WorkspaceID)
	e := &model.Event{}
	if err := row.Scan(&e.ID, &e.Scope.TenantID, &e.Scope.WorkspaceID, &e.Scope.RepoID,
		&e.Scope.SessionID, &e.Scope.TaskID, &e.Payload, &e.SourceSession, &e.ContentHash,
		&e.CreatedAt, &e.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get event: %w", err)
	}
	return e, nil
}

// SweepExpiredEvents deletes every L0 event whose expires_at has passed
// as of now, returning the number of rows removed.
func (s *Store) SweepExpiredEvents(ctx context.Context, tx *sql.Tx, now time.Time) (int, error) {
	res, err := s.q(tx).ExecContext(ctx, `DELETE FROM memory_l0_events WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("store: sweep expired events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: sweep rows affected: %w", err)
	}
	return int(n), nil
}

// DeleteEventsByScopeWhere hard-deletes every L0 event matching scope plus
// an optional extra WHERE fragment built from a forget selector; pass ""
// to delete every event in scope.
func (s *Store) DeleteEventsByScopeWhere(ctx context.Context, tx *sql.Tx, scope model.Scope, extraWhere string, args []any) (int, error) {
	query := `DELETE FROM memory_l0_events WHERE tenant_id = ? AND workspace_id = ?`
	allArgs := []any{scope.TenantID, scope.WorkspaceID}
	if extraWhere != "" {
		query += " AND " + extraWhere
		allArgs = append(allArgs, args...)
	}
	res, err := s.q(tx).ExecContext(ctx, query, allArgs...)
	if err != nil {
		return 0, fmt.Errorf("store: delete events by scope: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: delete events rows affected: %w", err)
	}
	return int(n), nil
}
