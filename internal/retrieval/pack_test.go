package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/untoldecay/memlayer/internal/model"
)

func l2Node(id string, claims []string) *model.Memory {
	now := time.Now().UTC()
	return &model.Memory{
		ID: id, Scope: testScope(), Layer: model.LayerL2, Type: model.TypeDecision,
		Status: model.StatusActive, Title: "Decision " + id, Summary: "summary " + id,
		Tags: []string{}, Entities: []string{}, Claims: claims, Applicability: map[string]string{},
		Confidence: 1.0, ConfirmationCount: 1, Version: 1,
		CreatedAt: now, UpdatedAt: now, LastConfirmedAt: now,
	}
}

func TestPackageIndexViewOmitsDetailFields(t *testing.T) {
	s := newTestStore(t)
	ranked := []Ranked{{Memory: l2Node("d1", []string{"claim"}), Score: 0.9}}

	result, err := Package(context.Background(), s, nil, ViewIndex, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	item := result.Items[0]
	if item.ID != "d1" || item.Title != "Decision d1" {
		t.Errorf("unexpected index item: %+v", item)
	}
	if item.Summary != "" || item.Claims != nil {
		t.Errorf("expected index view to omit detail fields, got %+v", item)
	}
}

func TestPackageDetailViewIncludesSummaryAndClaims(t *testing.T) {
	s := newTestStore(t)
	ranked := []Ranked{{Memory: l2Node("d1", []string{"claim a"}), Score: 0.9}}

	result, err := Package(context.Background(), s, nil, ViewDetail, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	item := result.Items[0]
	if item.Summary == "" {
		t.Errorf("expected detail view to include summary")
	}
	if len(item.Claims) != 1 || item.Claims[0] != "claim a" {
		t.Errorf("expected detail view to include claims, got %+v", item.Claims)
	}
	if item.Artifacts != nil {
		t.Errorf("expected detail view to omit artifacts, got %+v", item.Artifacts)
	}
}

func TestPackageEvidenceViewIncludesArtifacts(t *testing.T) {
	s := newTestStore(t)
	node := l2Node("d1", []string{"claim"})
	if err := s.InsertL2(context.Background(), nil, node); err != nil {
		t.Fatalf("InsertL2: %v", err)
	}
	artifact := &model.ArtifactRef{
		MemoryID: "d1", Layer: model.LayerL2, Kind: "url", Locator: "https://example.com/doc",
		Classification: model.ClassificationInternal, SnippetPolicy: model.SnippetForbidden,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertArtifact(context.Background(), nil, artifact); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}

	ranked := []Ranked{{Memory: node, Score: 0.9}}
	result, err := Package(context.Background(), s, nil, ViewEvidence, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	item := result.Items[0]
	if len(item.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(item.Artifacts))
	}
	if item.Artifacts[0].Locator != "https://example.com/doc" {
		t.Errorf("unexpected artifact: %+v", item.Artifacts[0])
	}
	if item.Artifacts[0].Snippet != nil {
		t.Errorf("expected no snippet for a url artifact with forbidden policy, got %+v", item.Artifacts[0].Snippet)
	}
}

func TestPackageEvidenceViewInlinesAllowedFileSnippet(t *testing.T) {
	s := newTestStore(t)
	node := l2Node("d1", []string{"claim"})
	if err := s.InsertL2(context.Background(), nil, node); err != nil {
		t.Fatalf("InsertL2: %v", err)
	}

	path := filepath.Join(t.TempDir(), "evidence.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	artifact := &model.ArtifactRef{
		MemoryID: "d1", Layer: model.LayerL2, Kind: "file", Locator: path,
		Classification: model.ClassificationInternal, SnippetPolicy: model.SnippetAllowed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertArtifact(context.Background(), nil, artifact); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}

	ranked := []Ranked{{Memory: node, Score: 0.9}}
	result, err := Package(context.Background(), s, nil, ViewEvidence, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	item := result.Items[0]
	if len(item.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(item.Artifacts))
	}
	if item.Artifacts[0].Snippet == nil || *item.Artifacts[0].Snippet != "hello" {
		t.Errorf("expected snippet %q, got %+v", "hello", item.Artifacts[0].Snippet)
	}
}

func TestPackageEvidenceViewOmitsSnippetForMissingFile(t *testing.T) {
	s := newTestStore(t)
	node := l2Node("d1", []string{"claim"})
	if err := s.InsertL2(context.Background(), nil, node); err != nil {
		t.Fatalf("InsertL2: %v", err)
	}
	artifact := &model.ArtifactRef{
		MemoryID: "d1", Layer: model.LayerL2, Kind: "file",
		Locator:        filepath.Join(t.TempDir(), "does-not-exist.txt"),
		Classification: model.ClassificationInternal, SnippetPolicy: model.SnippetAllowed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.UpsertArtifact(context.Background(), nil, artifact); err != nil {
		t.Fatalf("UpsertArtifact: %v", err)
	}

	ranked := []Ranked{{Memory: node, Score: 0.9}}
	result, err := Package(context.Background(), s, nil, ViewEvidence, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	item := result.Items[0]
	if len(item.Artifacts) != 1 {
		t.Fatalf("expected the artifact ref to survive a failed read, got %d", len(item.Artifacts))
	}
	if item.Artifacts[0].Snippet != nil {
		t.Errorf("expected no snippet for a missing file, got %q", *item.Artifacts[0].Snippet)
	}
}

func TestPackageTruncatesAtTokenBudget(t *testing.T) {
	s := newTestStore(t)
	ranked := []Ranked{
		{Memory: l2Node("d1", []string{"claim"}), Score: 0.9},
		{Memory: l2Node("d2", []string{"claim"}), Score: 0.8},
		{Memory: l2Node("d3", []string{"claim"}), Score: 0.7},
	}

	result, err := Package(context.Background(), s, nil, ViewDetail, 1, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if !result.Truncation.Truncated {
		t.Fatalf("expected truncation with a tiny budget")
	}
	if result.Truncation.Reason != "TOKEN_BUDGET" {
		t.Errorf("expected reason TOKEN_BUDGET, got %q", result.Truncation.Reason)
	}
	if len(result.Items) != 0 {
		t.Errorf("expected no items to fit in a budget of 1 token, got %d", len(result.Items))
	}
}

func TestPackageNoTruncationWithAmpleBudget(t *testing.T) {
	s := newTestStore(t)
	ranked := []Ranked{{Memory: l2Node("d1", []string{"claim"}), Score: 0.9}}

	result, err := Package(context.Background(), s, nil, ViewDetail, 100000, ranked)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if result.Truncation.Truncated {
		t.Errorf("expected no truncation with ample budget")
	}
	if result.RemainingBudget <= 0 {
		t.Errorf("expected positive remaining budget, got %d", result.RemainingBudget)
	}
}
