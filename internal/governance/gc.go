package governance

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/untoldecay/memlayer/internal/model"
)

// GCSweep deletes every L0 row whose expires_at has passed.
func (e *Engine) GCSweep(ctx context.Context) (int, error) {
	var n int
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		deleted, err := e.store.SweepExpiredEvents(ctx, tx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("governance: gc_sweep: %w", err)
		}
		n = deleted
		return nil
	})
	return n, err
}

// GCCompactResult reports how many observations were absorbed and how
// many new episode summaries were minted.
type GCCompactResult struct {
	CompactedObservations int `json:"compacted_observations"`
	EpisodesCreated       int `json:"episodes_created"`
}

type compactionGroupKey struct {
	day    string
	repoID string
	module string
}

// GCCompact groups active Observations in scope by (day, repo_id, module)
// and, for every group of two or more, synthesizes an EpisodeSummary and
// archives the source observations. Singleton groups are left alone.
func (e *Engine) GCCompact(ctx context.Context, scope model.Scope) (*GCCompactResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}

	result := &GCCompactResult{}
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		obs, err := e.store.ListActiveObservationsForCompaction(ctx, tx, scope)
		if err != nil {
			return fmt.Errorf("governance: gc_compact: %w", err)
		}

		groups := map[compactionGroupKey][]*model.Memory{}
		for _, o := range obs {
			day := o.CreatedAt.UTC().Format("2006-01-02")
			key := compactionGroupKey{day: day, repoID: o.Scope.RepoID, module: o.Scope.Module}
			groups[key] = append(groups[key], o)
		}

		for key, members := range groups {
			if len(members) < 2 {
				continue
			}

			moduleLabel := key.module
			if moduleLabel == "" {
				moduleLabel = "General"
			}
			var summaries []string
			for _, m := range members {
				summaries = append(summaries, m.Summary)
			}
			content := strings.Join(summaries, " ")
			runes := []rune(content)
			if len(runes) > 200 {
				runes = runes[:200]
			}

			epScope := scope
			epScope.RepoID = key.repoID
			epScope.Module = key.module

			now := time.Now().UTC()
			episode := &model.Memory{
				ID:                uuid.NewString(),
				Scope:             epScope,
				Layer:             model.LayerL1,
				Type:              model.TypeEpisodeSummary,
				Status:            model.StatusActive,
				Title:             fmt.Sprintf("Episode: %s - %s", key.day, moduleLabel),
				Summary:           fmt.Sprintf("Compacted %d observations. Content: %s...", len(members), string(runes)),
				Tags:              []string{},
				Entities:          []string{},
				Claims:            []string{},
				Applicability:     map[string]string{},
				Confidence:        0.8,
				EvidenceCount:     len(members),
				ConfirmationCount: 1,
				CreatedAt:         now,
				UpdatedAt:         now,
				LastConfirmedAt:   now,
				CompactionLevel:   1,
			}
			if err := episode.Validate(); err != nil {
				return fmt.Errorf("governance: gc_compact episode: %w", err)
			}
			if err := e.store.InsertL1(ctx, tx, episode); err != nil {
				return fmt.Errorf("governance: gc_compact episode: %w", err)
			}

			for _, m := range members {
				m.Status = model.StatusArchived
				if err := e.store.SetL1Status(ctx, tx, scope, m.ID, model.StatusArchived); err != nil {
					return fmt.Errorf("governance: gc_compact archive %s: %w", m.ID, err)
				}
				result.CompactedObservations++
			}
			result.EpisodesCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
