package governance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s, graph.NullAccelerator{}), s
}

func testScope() model.Scope {
	return model.Scope{TenantID: "t1", WorkspaceID: "w1"}
}

func insertL1(t *testing.T, s *store.Store, scope model.Scope, id string, userID string, createdAt time.Time) {
	t.Helper()
	m := &model.Memory{
		ID: id, Scope: scope, Layer: model.LayerL1, Type: model.TypeObservation,
		Status: model.StatusActive, Title: id, Summary: id,
		Tags: []string{}, Entities: []string{}, Claims: []string{}, Applicability: map[string]string{},
		Confidence: 0.5, ConfirmationCount: 1,
		CreatedAt: createdAt, UpdatedAt: createdAt, LastConfirmedAt: createdAt,
	}
	m.Scope.UserID = userID
	if err := s.InsertL1(context.Background(), nil, m); err != nil {
		t.Fatalf("InsertL1(%s): %v", id, err)
	}
}

func insertL2(t *testing.T, s *store.Store, scope model.Scope, id string) {
	t.Helper()
	now := time.Now().UTC()
	node := &model.Memory{
		ID: id, Scope: scope, Layer: model.LayerL2, Type: model.TypeDecision,
		Status: model.StatusActive, Title: id, Summary: id,
		Tags: []string{}, Entities: []string{}, Claims: []string{"c"}, Applicability: map[string]string{},
		Confidence: 1.0, ConfirmationCount: 1, Version: 1,
		CreatedAt: now, UpdatedAt: now, LastConfirmedAt: now,
	}
	if err := s.InsertL2(context.Background(), nil, node); err != nil {
		t.Fatalf("InsertL2(%s): %v", id, err)
	}
}

func TestDeprecateMemoryL1(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	insertL1(t, s, scope, "o1", "", time.Now().UTC())

	result, err := e.DeprecateMemory(context.Background(), scope, "o1", "stale", nil)
	if err != nil {
		t.Fatalf("DeprecateMemory: %v", err)
	}
	if result.Layer != model.LayerL1 {
		t.Errorf("expected L1 resolution, got %s", result.Layer)
	}

	got, err := s.GetL1(context.Background(), nil, scope, "o1")
	if err != nil {
		t.Fatalf("GetL1: %v", err)
	}
	if got.Status != model.StatusDeprecated {
		t.Errorf("expected deprecated status, got %s", got.Status)
	}
}

func TestDeprecateMemoryL2WithSupersession(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	insertL2(t, s, scope, "old")
	insertL2(t, s, scope, "new")

	result, err := e.DeprecateMemory(context.Background(), scope, "old", "superseded", strPtr("new"))
	if err != nil {
		t.Fatalf("DeprecateMemory: %v", err)
	}
	if result.Layer != model.LayerL2 {
		t.Errorf("expected L2 resolution, got %s", result.Layer)
	}

	replacement, err := s.GetL2(context.Background(), nil, scope, "new")
	if err != nil {
		t.Fatalf("GetL2: %v", err)
	}
	if replacement.SupersedesID == nil || *replacement.SupersedesID != "old" {
		t.Errorf("expected replacement to record supersedes_id=old, got %+v", replacement.SupersedesID)
	}
}

func TestDeprecateMemoryNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	if _, err := e.DeprecateMemory(context.Background(), testScope(), "missing", "", nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestForgetMemoryByUserIDSkipsL0AndL2(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	now := time.Now().UTC()
	insertL1(t, s, scope, "o1", "alice", now)
	insertL2(t, s, scope, "d1")
	ref := &model.ArtifactRef{
		MemoryID: "o1", Layer: model.LayerL1, Kind: "file", Locator: "/tmp/o1.txt",
		Classification: model.ClassificationInternal, SnippetPolicy: model.SnippetForbidden,
		CreatedAt: now,
	}
	if err := s.UpsertArtifact(context.Background(), nil, ref); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}

	sel := Selector{UserID: "alice"}
	result, err := e.ForgetMemory(context.Background(), scope, sel)
	if err != nil {
		t.Fatalf("ForgetMemory: %v", err)
	}
	if result.L0Deleted != 0 {
		t.Errorf("expected L0 to be skipped when selector narrows by user_id, got %d", result.L0Deleted)
	}
	if result.L2Tombstoned != 0 {
		t.Errorf("expected L2 to be skipped when selector narrows by user_id, got %d", result.L2Tombstoned)
	}
	if result.L1Deleted != 1 {
		t.Errorf("expected L1 to always apply the full selector, got %d deleted", result.L1Deleted)
	}

	if _, err := s.GetL1(context.Background(), nil, scope, "o1"); err != store.ErrNotFound {
		t.Errorf("expected o1 to be deleted from L1, got %v", err)
	}
	refs, err := s.ArtifactsFor(context.Background(), nil, "o1")
	if err != nil {
		t.Fatalf("ArtifactsFor: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected o1's artifacts to be deleted with it, got %d", len(refs))
	}
	ok, err := s.L2Exists(context.Background(), nil, scope, "d1")
	if err != nil {
		t.Fatalf("L2Exists: %v", err)
	}
	if !ok {
		t.Errorf("expected d1 to still exist since L2 forget is skipped for a user_id-narrowed selector")
	}
}

func TestForgetMemoryByTimeRangeAppliesAllTiers(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	now := time.Now().UTC()
	insertL1(t, s, scope, "o1", "", now)
	insertL2(t, s, scope, "d1")

	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	sel := Selector{StartTime: &start, EndTime: &end}
	result, err := e.ForgetMemory(context.Background(), scope, sel)
	if err != nil {
		t.Fatalf("ForgetMemory: %v", err)
	}
	if result.L1Deleted != 1 {
		t.Errorf("expected 1 L1 row deleted, got %d", result.L1Deleted)
	}
	if result.L2Tombstoned != 1 {
		t.Errorf("expected L2 to be tombstoned for a non-user_id selector, got %d", result.L2Tombstoned)
	}
	if result.TombstoneHash == "" {
		t.Errorf("expected a non-empty tombstone hash")
	}
}

func TestForgetMemorySelectorHashIsStable(t *testing.T) {
	sel1 := Selector{UserID: "alice"}
	sel2 := Selector{UserID: "alice"}
	h1, err := sel1.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := sel2.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("expected identical selectors to hash identically: %s vs %s", h1, h2)
	}

	sel3 := Selector{UserID: "bob"}
	h3, err := sel3.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h3 {
		t.Errorf("expected different selectors to hash differently")
	}
}

func TestGCSweepDeletesExpiredEvents(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	now := time.Now().UTC()
	ev := &model.Event{ID: "e1", Scope: scope, Payload: []byte("{}"), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	if err := s.InsertEvent(context.Background(), nil, ev); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	n, err := e.GCSweep(context.Background())
	if err != nil {
		t.Fatalf("GCSweep: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 event swept, got %d", n)
	}
}

func TestGCCompactGroupsByDayRepoModule(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	scope.RepoID = "r1"
	scope.Module = "core"
	now := time.Now().UTC()

	insertL1(t, s, scope, "o1", "", now)
	insertL1(t, s, scope, "o2", "", now)

	result, err := e.GCCompact(context.Background(), scope)
	if err != nil {
		t.Fatalf("GCCompact: %v", err)
	}
	if result.EpisodesCreated != 1 {
		t.Errorf("expected 1 episode created from the two-observation group, got %d", result.EpisodesCreated)
	}
	if result.CompactedObservations != 2 {
		t.Errorf("expected 2 observations compacted, got %d", result.CompactedObservations)
	}

	o1, err := s.GetL1(context.Background(), nil, scope, "o1")
	if err != nil {
		t.Fatalf("GetL1(o1): %v", err)
	}
	if o1.Status != model.StatusArchived {
		t.Errorf("expected o1 archived after compaction, got %s", o1.Status)
	}

	episode, err := s.FindEpisodeByTask(context.Background(), nil, scope, "")
	if err != nil {
		t.Fatalf("FindEpisodeByTask: %v", err)
	}
	if episode.CompactionLevel != 1 {
		t.Errorf("expected synthesized episode compaction_level = 1, got %d", episode.CompactionLevel)
	}
}

func TestGCCompactSkipsSingletonGroups(t *testing.T) {
	e, s := newTestEngine(t)
	scope := testScope()
	scope.RepoID = "r1"
	scope.Module = "core"
	now := time.Now().UTC()

	insertL1(t, s, scope, "o1", "", now)

	result, err := e.GCCompact(context.Background(), scope)
	if err != nil {
		t.Fatalf("GCCompact: %v", err)
	}
	if result.EpisodesCreated != 0 {
		t.Errorf("expected no episode for a singleton group, got %d", result.EpisodesCreated)
	}

	o1, err := s.GetL1(context.Background(), nil, scope, "o1")
	if err != nil {
		t.Fatalf("GetL1(o1): %v", err)
	}
	if o1.Status != model.StatusActive {
		t.Errorf("expected o1 to remain active, got %s", o1.Status)
	}
}
