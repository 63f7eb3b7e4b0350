package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testScope() model.Scope {
	return model.Scope{TenantID: "t1", WorkspaceID: "w1"}
}

func insertL1(t *testing.T, s *store.Store, id, title, summary string, confidence float64) {
	t.Helper()
	now := time.Now().UTC()
	m := &model.Memory{
		ID: id, Scope: testScope(), Layer: model.LayerL1, Type: model.TypeObservation,
		Status: model.StatusActive, Title: title, Summary: summary,
		Tags: []string{}, Entities: []string{}, Claims: []string{}, Applicability: map[string]string{},
		Confidence: confidence, ConfirmationCount: 1, CreatedAt: now, UpdatedAt: now, LastConfirmedAt: now,
	}
	if err := s.InsertL1(context.Background(), nil, m); err != nil {
		t.Fatalf("InsertL1(%s): %v", id, err)
	}
}

func TestFuseHigherConfidenceScoresHigher(t *testing.T) {
	now := time.Now().UTC()
	low := &model.Memory{Type: model.TypeObservation, Confidence: 0.2, LastConfirmedAt: now}
	high := &model.Memory{Type: model.TypeObservation, Confidence: 0.9, LastConfirmedAt: now}

	lowScore := fuse(low, now, 0, 0, false, 0)
	highScore := fuse(high, now, 0, 0, false, 0)
	if highScore <= lowScore {
		t.Errorf("expected higher confidence to score higher: low=%v high=%v", lowScore, highScore)
	}
}

func TestFuseTypeBoostAffectsScore(t *testing.T) {
	now := time.Now().UTC()
	obs := &model.Memory{Type: model.TypeObservation, Confidence: 0.5, LastConfirmedAt: now}
	decision := &model.Memory{Type: model.TypeDecision, Confidence: 0.5, LastConfirmedAt: now}

	if fuse(decision, now, 0, 0, false, 0) <= fuse(obs, now, 0, 0, false, 0) {
		t.Errorf("expected decision's higher type boost to outscore observation")
	}
}

func TestFuseVectorTermOnlyAppliesWhenHasDist(t *testing.T) {
	now := time.Now().UTC()
	m := &model.Memory{Type: model.TypeObservation, Confidence: 0.5, LastConfirmedAt: now}

	withoutVec := fuse(m, now, 0, 0, false, weightVector)
	withVec := fuse(m, now, 0, 0.5, true, weightVector)
	if withVec <= withoutVec {
		t.Errorf("expected vector term to add to the score when hasDist is true")
	}
}

func TestSearchMemoryFindsLexicalMatch(t *testing.T) {
	s := newTestStore(t)
	insertL1(t, s, "o1", "Observation: memory leak crash", "System crash due to memory leak", 0.5)

	e := New(s)
	result, err := e.SearchMemory(context.Background(), nil, testScope(), "memory leak", ViewDetail, 10000, 10, Filters{})
	if err != nil {
		t.Fatalf("SearchMemory: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 result, got %d: %+v", len(result.Items), result.Items)
	}
	if result.Items[0].ID != "o1" {
		t.Errorf("expected o1, got %s", result.Items[0].ID)
	}
}

func TestSearchMemoryRespectsTopK(t *testing.T) {
	s := newTestStore(t)
	insertL1(t, s, "o1", "Observation: alpha widget", "alpha widget failure", 0.9)
	insertL1(t, s, "o2", "Observation: beta widget", "beta widget failure", 0.1)

	e := New(s)
	result, err := e.SearchMemory(context.Background(), nil, testScope(), "widget", ViewIndex, 10000, 1, Filters{})
	if err != nil {
		t.Fatalf("SearchMemory: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected topK=1 to return 1 item, got %d", len(result.Items))
	}
	if result.Items[0].ID != "o1" {
		t.Errorf("expected higher-confidence o1 to rank first, got %s", result.Items[0].ID)
	}
}

func TestSearchMemoryRejectsInvalidScope(t *testing.T) {
	s := newTestStore(t)
	e := New(s)
	if _, err := e.SearchMemory(context.Background(), nil, model.Scope{}, "x", ViewIndex, 1000, 10, Filters{}); err == nil {
		t.Fatalf("expected error for invalid scope")
	}
}
