package graph

import (
	"context"
	"testing"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
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

func insertL2(t *testing.T, s *store.Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	node := &model.Memory{
		ID: id, Scope: testScope(), Layer: model.LayerL2, Type: model.TypeDecision,
		Status: model.StatusActive, Title: id, Summary: id,
		Tags: []string{}, Entities: []string{}, Claims: []string{"c"}, Applicability: map[string]string{},
		Confidence: 1.0, ConfirmationCount: 1, Version: 1,
		CreatedAt: now, UpdatedAt: now, LastConfirmedAt: now,
	}
	if err := s.InsertL2(context.Background(), nil, node); err != nil {
		t.Fatalf("InsertL2(%s): %v", id, err)
	}
}

func insertEdge(t *testing.T, s *store.Store, from, to, rel string) {
	t.Helper()
	scope := testScope()
	edge := &model.Edge{TenantID: scope.TenantID, WorkspaceID: scope.WorkspaceID, FromID: from, ToID: to, Rel: rel, Weight: 1, CreatedAt: time.Now().UTC()}
	if err := s.UpsertEdge(context.Background(), nil, edge); err != nil {
		t.Fatalf("UpsertEdge(%s->%s): %v", from, to, err)
	}
}

// fakeAccelerator is a test double that lets a test script its Expand result.
type fakeAccelerator struct {
	enabled bool
	result  *ExpandResult
	ok      bool
}

func (f *fakeAccelerator) Enabled() bool                                                    { return f.enabled }
func (f *fakeAccelerator) UpsertNode(ctx context.Context, n Node)                            {}
func (f *fakeAccelerator) UpsertEdge(ctx context.Context, fromID, toID, rel string, w float64) {}
func (f *fakeAccelerator) Expand(ctx context.Context, seedID string, hops int) (*ExpandResult, bool) {
	return f.result, f.ok
}

var _ Accelerator = (*fakeAccelerator)(nil)

func TestExpandMemoryRelationalFallback(t *testing.T) {
	s := newTestStore(t)
	insertL2(t, s, "a")
	insertL2(t, s, "b")
	insertL2(t, s, "c")
	insertEdge(t, s, "a", "b", "depends_on")
	insertEdge(t, s, "b", "c", "depends_on")

	result, err := ExpandMemory(context.Background(), s, NullAccelerator{}, testScope(), "a", 2, retrieval.ViewIndex, 100000)
	if err != nil {
		t.Fatalf("ExpandMemory: %v", err)
	}
	ids := map[string]bool{}
	for _, item := range result.Items {
		ids[item.ID] = true
	}
	if !ids["b"] || !ids["c"] {
		t.Errorf("expected both hops reachable via relational fallback, got %+v", result.Items)
	}
	if len(result.Paths) != 2 {
		t.Errorf("expected 2 walked edges, got %d: %+v", len(result.Paths), result.Paths)
	}
}

func TestExpandMemorySeedExcludedFromNeighbors(t *testing.T) {
	s := newTestStore(t)
	insertL2(t, s, "a")
	insertL2(t, s, "b")
	insertEdge(t, s, "a", "b", "depends_on")
	insertEdge(t, s, "b", "a", "depends_on")

	result, err := ExpandMemory(context.Background(), s, NullAccelerator{}, testScope(), "a", 2, retrieval.ViewIndex, 100000)
	if err != nil {
		t.Fatalf("ExpandMemory: %v", err)
	}
	for _, item := range result.Items {
		if item.ID == "a" {
			t.Errorf("expected seed to be excluded from neighbor results, got %+v", result.Items)
		}
	}
}

func TestExpandMemoryUsesAcceleratorWhenAvailable(t *testing.T) {
	s := newTestStore(t)
	insertL2(t, s, "a")
	insertL2(t, s, "b")

	accel := &fakeAccelerator{
		enabled: true,
		ok:      true,
		result: &ExpandResult{
			NodeIDs: []string{"b"},
			Paths:   []Path{{From: "a", Rel: "depends_on", To: "b"}},
		},
	}

	result, err := ExpandMemory(context.Background(), s, accel, testScope(), "a", 1, retrieval.ViewIndex, 100000)
	if err != nil {
		t.Fatalf("ExpandMemory: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != "b" {
		t.Fatalf("expected accelerator result to drive the neighbor set, got %+v", result.Items)
	}
	if len(result.Paths) != 1 || result.Paths[0].Rel != "depends_on" {
		t.Errorf("expected accelerator paths to pass through, got %+v", result.Paths)
	}
}

func TestExpandMemoryRejectsInvalidScope(t *testing.T) {
	s := newTestStore(t)
	if _, err := ExpandMemory(context.Background(), s, NullAccelerator{}, model.Scope{}, "a", 1, retrieval.ViewIndex, 1000); err == nil {
		t.Fatalf("expected error for invalid scope")
	}
}
