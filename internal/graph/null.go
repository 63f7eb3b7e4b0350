package graph

import "context"

// NullAccelerator is the always-disabled Accelerator used when no external
// graph service is configured. Every method is a no-op.
type NullAccelerator struct{}

var _ Accelerator = NullAccelerator{}

func (NullAccelerator) Enabled() bool { return false }

func (NullAccelerator) UpsertNode(ctx context.Context, n Node) {}

func (NullAccelerator) UpsertEdge(ctx context.Context, fromID, toID, rel string, weight float64) {}

func (NullAccelerator) Expand(ctx context.Context, seedID string, hops int) (*ExpandResult, bool) {
	return nil, false
}
