package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/idempotency"
	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/retrieval"
	"github.com/untoldecay/memlayer/internal/store"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	s, err := store.Open(context.Background(), "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	idem := idempotency.New(s)
	ing := ingestion.New(s, idem, graph.NullAccelerator{})
	ret := retrieval.New(s)
	return New(ing, ret)
}

func setEnvScope(t *testing.T) {
	t.Helper()
	t.Setenv("MEMLAYER_TENANT_ID", "t1")
	t.Setenv("MEMLAYER_WORKSPACE_ID", "w1")
	t.Setenv("MEMLAYER_SESSION_ID", "sess-1")
}

func TestScopeFromEnv(t *testing.T) {
	setEnvScope(t)
	t.Setenv("MEMLAYER_REPO_ID", "repo-1")
	scope := ScopeFromEnv()
	if scope.TenantID != "t1" || scope.WorkspaceID != "w1" || scope.RepoID != "repo-1" || scope.SessionID != "sess-1" {
		t.Fatalf("unexpected scope: %+v", scope)
	}
}

func TestRunSessionStart(t *testing.T) {
	setEnvScope(t)
	d := newTestDriver(t)
	var out bytes.Buffer
	if err := d.Run(context.Background(), EventSessionStart, strings.NewReader(`{}`), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunUserPromptSubmitSearchesAndPrintsContext(t *testing.T) {
	setEnvScope(t)
	d := newTestDriver(t)
	ctx := context.Background()

	if _, err := d.ingest.UpsertEvent(ctx, ScopeFromEnv(), []byte("System crash due to memory leak"), "", true, "sess-1"); err != nil {
		t.Fatalf("seed UpsertEvent: %v", err)
	}

	payload, err := json.Marshal(envelope{Prompt: "memory leak"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var out bytes.Buffer
	if err := d.Run(ctx, EventUserPromptSubmit, bytes.NewReader(payload), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() == 0 {
		t.Errorf("expected context lines to be written, got none")
	}
}

func TestRunUnknownEvent(t *testing.T) {
	setEnvScope(t)
	d := newTestDriver(t)
	err := d.Run(context.Background(), "NotARealEvent", strings.NewReader(`{}`), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestRunStopCommitsEpisode(t *testing.T) {
	setEnvScope(t)
	d := newTestDriver(t)
	if err := d.Run(context.Background(), EventStop, strings.NewReader(`{}`), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
