package ingestion

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/untoldecay/memlayer/internal/model"
)

// firstN returns the first n runes of s, rune-safe.
func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// UpsertEvent inserts a raw L0 event and, if distill is true, materializes
// an L1 Observation from it in the same transaction.
func (e *Engine) UpsertEvent(ctx context.Context, scope model.Scope, payload []byte, key string, distill bool, sourceSession string) (*UpsertEventResult, error) {
	if err := scope.Validate(); err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	var result UpsertEventResult
	err := e.store.WithTx(ctx, func(tx *sql.Tx) error {
		if key != "" {
			if cached, found, err := e.idem.Check(ctx, tx, scope.TenantID, key); err != nil {
				return err
			} else if found {
				return json.Unmarshal(cached, &result)
			}
		}

		now := time.Now().UTC()
		ev := &model.Event{
			ID:            uuid.NewString(),
			Scope:         scope,
			Payload:       payload,
			SourceSession: sourceSession,
			ContentHash:   contentHash(payload),
			CreatedAt:     now,
			ExpiresAt:     now.Add(model.DefaultEventTTL),
		}
		if err := e.store.InsertEvent(ctx, tx, ev); err != nil {
			return fmt.Errorf("ingestion: upsert_event: %w", err)
		}

		result = UpsertEventResult{ID: ev.ID, Layer: string(model.LayerL0)}

		if distill {
			content := string(payload)
			obs := &model.Memory{
				ID:                uuid.NewString(),
				Scope:             scope,
				Layer:             model.LayerL1,
				Type:              model.TypeObservation,
				Status:            model.StatusActive,
				Title:             "Observation: " + firstN(content, 50),
				Summary:           content,
				Tags:              []string{},
				Entities:          []string{},
				Claims:            []string{},
				Applicability:     map[string]string{},
				Confidence:        0.5,
				EvidenceCount:     0,
				ConfirmationCount: 1,
				CreatedAt:         now,
				UpdatedAt:         now,
				LastConfirmedAt:   now,
				ContentHash:       contentHash(payload),
			}
			if err := obs.Validate(); err != nil {
				return fmt.Errorf("ingestion: upsert_event distilled observation: %w", err)
			}
			if err := e.store.InsertL1(ctx, tx, obs); err != nil {
				return fmt.Errorf("ingestion: upsert_event distill: %w", err)
			}
			result.L1ID = obs.ID
		}

		if key != "" {
			if err := e.idem.Record(ctx, tx, scope.TenantID, key, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
