// Package governance implements the memory lifecycle's winding-down half:
// deprecation, selector-based forgetting with tombstones, TTL sweep of L0,
// and temporal compaction of observations into episode summaries.
package governance

import (
	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/log"
	"github.com/untoldecay/memlayer/internal/store"
)

// Engine runs governance operations against a Store, projecting cascading
// L2 effects (deprecation, supersession) to a graph Accelerator.
type Engine struct {
	store *store.Store
	graph graph.Accelerator
	log   *zap.Logger
}

// New builds a governance Engine.
func New(s *store.Store, accel graph.Accelerator) *Engine {
	return &Engine{store: s, graph: accel, log: log.Component("governance")}
}
