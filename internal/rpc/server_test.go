package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/untoldecay/memlayer/internal/governance"
	"github.com/untoldecay/memlayer/internal/graph"
	"github.com/untoldecay/memlayer/internal/idempotency"
	"github.com/untoldecay/memlayer/internal/ingestion"
	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/retrieval"
	"github.com/untoldecay/memlayer/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(context.Background(), "", store.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	idem := idempotency.New(s)
	accel := graph.NullAccelerator{}
	ing := ingestion.New(s, idem, accel)
	ret := retrieval.New(s)
	gov := governance.New(s, accel)
	return New(s, ing, ret, accel, gov)
}

func testScope() model.Scope {
	return model.Scope{TenantID: "t1", WorkspaceID: "w1"}
}

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return raw
}

func TestDispatchUpsertThenSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	upsertResp := s.Dispatch(ctx, Request{
		Operation: OpUpsertEvent,
		Args: mustArgs(t, upsertEventArgs{
			Scope:   testScope(),
			Payload: json.RawMessage(`"System crash due to memory leak"`),
			Distill: true,
		}),
	})
	if upsertResp.Status != "ok" {
		t.Fatalf("upsert: status=%s message=%s", upsertResp.Status, upsertResp.Message)
	}

	searchResp := s.Dispatch(ctx, Request{
		Operation: OpSearchMemory,
		Args: mustArgs(t, searchMemoryArgs{
			Scope:  testScope(),
			Query:  "memory leak",
			Budget: 4096,
			TopK:   10,
		}),
	})
	if searchResp.Status != "ok" {
		t.Fatalf("search: status=%s message=%s", searchResp.Status, searchResp.Message)
	}
	var result retrieval.Result
	if err := json.Unmarshal(searchResp.Data, &result); err != nil {
		t.Fatalf("unmarshal search result: %v", err)
	}
	if len(result.Items) == 0 {
		t.Fatalf("expected at least one search result")
	}
}

func TestDispatchUnknownOperation(t *testing.T) {
	s := newTestServer(t)
	resp := s.Dispatch(context.Background(), Request{Operation: "not_a_real_op"})
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
	if resp.ErrorCode != ErrCodeValidation {
		t.Errorf("expected %s, got %s", ErrCodeValidation, resp.ErrorCode)
	}
}

func TestDispatchPromoteValidationFailure(t *testing.T) {
	s := newTestServer(t)
	resp := s.Dispatch(context.Background(), Request{
		Operation: OpPromoteToL2,
		Args: mustArgs(t, promoteToL2Args{
			Scope: testScope(),
			Draft: ingestion.PromotionDraft{
				Type:   model.TypeVerifiedFact,
				Claims: nil,
			},
		}),
	})
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
	if resp.ErrorCode != ErrCodePromotionValidation {
		t.Errorf("expected %s, got %s", ErrCodePromotionValidation, resp.ErrorCode)
	}
}

func TestDispatchDeprecateNotFound(t *testing.T) {
	s := newTestServer(t)
	resp := s.Dispatch(context.Background(), Request{
		Operation: OpDeprecate,
		Args: mustArgs(t, deprecateArgs{
			Scope:  testScope(),
			ID:     "does-not-exist",
			Reason: "test",
		}),
	})
	if resp.Status != "error" {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
	if resp.ErrorCode != ErrCodeNotFound {
		t.Errorf("expected %s, got %s", ErrCodeNotFound, resp.ErrorCode)
	}
}
