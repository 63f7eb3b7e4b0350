package idempotency

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/untoldecay/memlayer/internal/store"
)

func TestGateCheckAndRecord(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	g := New(s)

	_, found, err := g.Check(ctx, nil, "t1", "key-1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if found {
		t.Fatalf("expected no record before Record() was called")
	}

	type result struct {
		ID string `json:"id"`
	}
	want := result{ID: "abc"}
	if err := g.Record(ctx, nil, "t1", "key-1", want); err != nil {
		t.Fatalf("Record: %v", err)
	}

	raw, found, err := g.Check(ctx, nil, "t1", "key-1")
	if err != nil {
		t.Fatalf("Check after Record: %v", err)
	}
	if !found {
		t.Fatalf("expected record to be found")
	}
	var got result
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("got %+v, want %+v", got, want)
	}

	// Recording again under the same key is a no-op (ON CONFLICT DO NOTHING).
	if err := g.Record(ctx, nil, "t1", "key-1", result{ID: "different"}); err != nil {
		t.Fatalf("second Record: %v", err)
	}
	raw, _, err = g.Check(ctx, nil, "t1", "key-1")
	if err != nil {
		t.Fatalf("Check after second Record: %v", err)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.ID != "abc" {
		t.Errorf("expected first-write-wins, got %+v", got)
	}
}

func TestGateScopedByTenant(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	g := New(s)
	if err := g.Record(ctx, nil, "t1", "same-key", map[string]string{"tenant": "t1"}); err != nil {
		t.Fatalf("Record t1: %v", err)
	}
	_, found, err := g.Check(ctx, nil, "t2", "same-key")
	if err != nil {
		t.Fatalf("Check t2: %v", err)
	}
	if found {
		t.Errorf("expected key scoped to t1 to not be visible under t2")
	}
}
