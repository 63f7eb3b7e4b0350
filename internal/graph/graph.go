// Package graph defines the external property-graph accelerator contract
// and its two adapters: a null implementation used when no accelerator is
// configured, and a stub HTTP-backed implementation for an external
// graph service. Neither adapter's availability may be a correctness
// dependency — retrieval and ingestion always have a relational fallback
// on the primary store.
package graph

import "context"

// Node is the projection of an L2 memory onto the accelerator's schema.
type Node struct {
	ID         string
	Type       string
	Title      string
	Tags       []string
	Confidence float64
}

// ExpandResult is the accelerator's answer to a variable-hop traversal:
// the distinct neighbor node ids reached and the edge triples walked to
// reach them.
type ExpandResult struct {
	NodeIDs []string
	Paths   []Path
}

// Path is one edge traversed during expansion.
type Path struct {
	From string
	Rel  string
	To   string
}

// Accelerator wraps an external property-graph connection. Implementations
// must never return an error from any method; a failed or absent backend
// is represented by Enabled() returning false, and expand-style queries
// returning (nil, false) so callers fall back to the relational store.
type Accelerator interface {
	// Enabled reports whether the accelerator is reachable and should be
	// consulted. A disabled accelerator is never retried mid-process.
	Enabled() bool

	// UpsertNode projects an L2 node. Best-effort; failures are swallowed.
	UpsertNode(ctx context.Context, n Node)

	// UpsertEdge projects an L2 edge. rel is assumed already sanitized.
	// Best-effort; failures are swallowed.
	UpsertEdge(ctx context.Context, fromID, toID, rel string, weight float64)

	// Expand performs a variable-length path query seed-(*1..hops)->m.
	// Returns (result, true) on success, (nil, false) if the accelerator
	// is disabled, errored, or returned nothing of structure — callers
	// must fall back to the relational edge table in that case.
	Expand(ctx context.Context, seedID string, hops int) (*ExpandResult, bool)
}
