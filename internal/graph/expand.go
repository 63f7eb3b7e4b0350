package graph

import (
	"context"
	"fmt"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
	"github.com/untoldecay/memlayer/internal/store"
)

// ExpandMemory tries the accelerator first, falling back to a
// variable-hop relational traversal of memory_l2_edges when the
// accelerator is disabled or returns nothing of structure. Node details are
// always fetched from the primary store and packaged with the same
// view/budget logic search_memory uses.
func ExpandMemory(ctx context.Context, s *store.Store, accel Accelerator, scope model.Scope, seedID string, hops int, view retrieval.View, budget int) (*retrieval.Result, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	if hops < 1 {
		hops = 1
	}

	var neighborIDs []string
	var paths []retrieval.Path

	if res, ok := accel.Expand(ctx, seedID, hops); ok {
		neighborIDs = res.NodeIDs
		for _, p := range res.Paths {
			paths = append(paths, retrieval.Path{From: p.From, Rel: p.Rel, To: p.To})
		}
	} else {
		ids, ps, err := relationalExpand(ctx, s, scope, seedID, hops)
		if err != nil {
			return nil, err
		}
		neighborIDs = ids
		paths = ps
	}

	ranked := make([]retrieval.Ranked, 0, len(neighborIDs))
	for _, id := range neighborIDs {
		m, err := s.GetL2(ctx, nil, scope, id)
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("graph: expand_memory load %s: %w", id, err)
		}
		ranked = append(ranked, retrieval.Ranked{Memory: m, Score: 0})
	}

	result, err := retrieval.Package(ctx, s, nil, view, budget, ranked)
	if err != nil {
		return nil, err
	}
	result.Paths = paths
	return result, nil
}

func relationalExpand(ctx context.Context, s *store.Store, scope model.Scope, seedID string, hops int) ([]string, []retrieval.Path, error) {
	visited := map[string]bool{seedID: true}
	neighborSet := map[string]bool{}
	var paths []retrieval.Path

	frontier := []string{seedID}
	for h := 0; h < hops; h++ {
		var next []string
		for _, from := range frontier {
			edges, err := s.EdgesFrom(ctx, nil, scope, from, "")
			if err != nil {
				return nil, nil, fmt.Errorf("graph: relational expand: %w", err)
			}
			for _, e := range edges {
				paths = append(paths, retrieval.Path{From: e.FromID, Rel: e.Rel, To: e.ToID})
				if e.ToID != seedID {
					neighborSet[e.ToID] = true
				}
				if !visited[e.ToID] {
					visited[e.ToID] = true
					next = append(next, e.ToID)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	ids := make([]string, 0, len(neighborSet))
	for id := range neighborSet {
		ids = append(ids, id)
	}
	return ids, paths, nil
}
