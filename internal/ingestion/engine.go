// Package ingestion implements the memory state machine: event upsert,
// optional distillation, episode consolidation, promotion validation, and
// L2 linking, each gated by the idempotency record co-committed with its
// effects. Graph-accelerator projection always happens after commit and is
// best-effort; the primary store stays authoritative.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/idempotency"
	"github.com/untoldecay/memlayer/internal/log"
	"github.com/untoldecay/memlayer/internal/store"
)

// Engine runs the ingestion operations against a Store, gated by an
// idempotency Gate and projecting accepted L2 mutations to a graph
// Accelerator.
type Engine struct {
	store *store.Store
	idem  *idempotency.Gate
	graph graph.Accelerator
	log   *zap.Logger

	// Permissive waives promote_to_l2's scope-tightness check (requiring
	// repo_id and one of module/environment). Defaults false.
	Permissive bool
}

// New builds an ingestion Engine. accel may be graph.NullAccelerator{} if
// no external graph service is configured.
func New(s *store.Store, idem *idempotency.Gate, accel graph.Accelerator) *Engine {
	return &Engine{store: s, idem: idem, graph: accel, log: log.Component("ingestion")}
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// projectNode is a best-effort, out-of-transaction graph projection. It
// never returns an error: accelerator failures degrade to disabled-mode
// behavior.
func (e *Engine) projectNode(ctx context.Context, n graph.Node) {
	if !e.graph.Enabled() {
		return
	}
	e.graph.UpsertNode(ctx, n)
}

func (e *Engine) projectEdge(ctx context.Context, fromID, toID, rel string, weight float64) {
	if !e.graph.Enabled() {
		return
	}
	e.graph.UpsertEdge(ctx, fromID, toID, rel, weight)
}
