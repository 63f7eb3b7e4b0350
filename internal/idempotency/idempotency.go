// Package idempotency implements the (tenant_id, key) -> stored result gate
// every mutating operation checks before doing work and writes after, in
// the same transaction as its effects.
package idempotency

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/untoldecay/memlayer/internal/store"
)

// Gate wraps the idempotency_records table.
type Gate struct {
	store *store.Store
}

// New builds a Gate over the given store.
func New(s *store.Store) *Gate {
	return &Gate{store: s}
}

// Check looks up a prior result for (tenantID, key). found is false if no
// record exists yet; callers then do the work and call Record in the same
// transaction before committing.
func (g *Gate) Check(ctx context.Context, tx *sql.Tx, tenantID, key string) (result json.RawMessage, found bool, err error) {
	q := g.queryer(tx)
	var raw string
	err = q.QueryRowContext(ctx, `SELECT result FROM idempotency_records WHERE tenant_id = ? AND key = ?`,
		tenantID, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency: check: %w", err)
	}
	return json.RawMessage(raw), true, nil
}

// Record stores the result of an operation keyed by (tenantID, key). It
// must run in the same transaction as the operation's effects so a crash
// between the two never happens.
func (g *Gate) Record(ctx context.Context, tx *sql.Tx, tenantID, key string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("idempotency: marshal result: %w", err)
	}
	q := g.queryer(tx)
	_, err = q.ExecContext(ctx, `
		INSERT INTO idempotency_records (tenant_id, key, result, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant_id, key) DO NOTHING`,
		tenantID, key, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("idempotency: record: %w", err)
	}
	return nil
}

func (g *Gate) queryer(tx *sql.Tx) store.Queryer {
	if tx != nil {
		return tx
	}
	return g.store.DB()
}
