package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

// Engine runs search_memory and expand_memory against a Store.
type Engine struct {
	store *store.Store
}

// New builds a retrieval Engine over the given store.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

const (
	weightConfidence  = 0.40
	weightFreshness   = 0.15
	weightTypeBoost   = 0.10
	weightVector      = 0.35
	weightLexical     = 0.50
	freshnessHalfDays = 180.0
)

// SearchMemory runs scope-filtered hybrid lexical+vector search across L1
// and L2, fused into a single ranked list, packaged into the requested
// view and truncated to the token budget.
func (e *Engine) SearchMemory(ctx context.Context, tx *sql.Tx, scope model.Scope, query string, view View, budget, topK int, filters Filters) (*Result, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	fanOut := 2 * topK
	if fanOut <= 0 {
		fanOut = 2
	}
	vectorTopN := filters.VectorTopN
	if vectorTopN <= 0 {
		vectorTopN = fanOut
	}
	sf := store.ScoreFilter{RepoID: scope.RepoID, Type: filters.Type, Status: filters.Status}

	var l1Rank, l2Rank, l1Dist, l2Dist map[string]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		l1Rank, err = e.store.LexicalSearchL1(gctx, tx, scope, query, sf, fanOut)
		return err
	})
	g.Go(func() (err error) {
		l2Rank, err = e.store.LexicalSearchL2(gctx, tx, scope, query, sf, fanOut)
		return err
	})
	wVec := 0.0
	if len(filters.QueryEmbedding) > 0 && e.store.VectorEnabled() {
		wVec = weightVector
		g.Go(func() error {
			d, err := e.store.VectorSearchL1(gctx, tx, scope, filters.QueryEmbedding, sf, vectorTopN)
			if err != nil {
				// Missing vector function or column: degrade to lexical-only.
				return nil
			}
			l1Dist = d
			return nil
		})
		g.Go(func() error {
			d, err := e.store.VectorSearchL2(gctx, tx, scope, filters.QueryEmbedding, sf, vectorTopN)
			if err != nil {
				return nil
			}
			l2Dist = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("retrieval: candidate fan-out: %w", err)
	}

	ids := map[string]model.Layer{}
	for id := range l1Rank {
		ids[id] = model.LayerL1
	}
	for id := range l1Dist {
		ids[id] = model.LayerL1
	}
	for id := range l2Rank {
		ids[id] = model.LayerL2
	}
	for id := range l2Dist {
		ids[id] = model.LayerL2
	}

	now := time.Now().UTC()
	var cands []candidate
	for id, layer := range ids {
		var m *model.Memory
		var err error
		if layer == model.LayerL1 {
			m, err = e.store.GetL1(ctx, tx, scope, id)
		} else {
			m, err = e.store.GetL2(ctx, tx, scope, id)
		}
		if err != nil {
			if err == store.ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("retrieval: load candidate %s: %w", id, err)
		}

		var ftsRank, vecDist float64
		var hasDist bool
		if layer == model.LayerL1 {
			ftsRank = l1Rank[id]
			vecDist, hasDist = l1Dist[id]
		} else {
			ftsRank = l2Rank[id]
			vecDist, hasDist = l2Dist[id]
		}
		score := fuse(m, now, ftsRank, vecDist, hasDist, wVec)
		cands = append(cands, candidate{mem: m, score: score})
	}

	sort.Slice(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if topK > 0 && len(cands) > topK {
		cands = cands[:topK]
	}

	return packageItems(ctx, e.store, tx, view, budget, cands)
}

func fuse(m *model.Memory, now time.Time, ftsRank, vecDist float64, hasDist bool, wVec float64) float64 {
	freshness := 1.0
	if !m.LastConfirmedAt.IsZero() {
		days := now.Sub(m.LastConfirmedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		freshness = math.Exp(-days / freshnessHalfDays)
	}

	score := weightConfidence*m.Confidence +
		weightFreshness*freshness +
		weightTypeBoost*m.Type.TypeBoost() +
		weightLexical*(-ftsRank)

	if hasDist {
		score += wVec * (1 / (1 + vecDist))
	}
	return score
}
