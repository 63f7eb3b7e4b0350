package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/untoldecay/memlayer/internal/model"
	"github.com/untoldecay/memlayer/internal/store"
)

// Package builds a Result from pre-ranked rows, applying view packaging
// and budget truncation. It is the entry point internal/graph uses to
// package expand_memory's neighbor set with the same semantics search_memory
// uses for its own candidates.
func Package(ctx context.Context, s *store.Store, tx *sql.Tx, view View, budget int, ranked []Ranked) (*Result, error) {
	cands := make([]candidate, len(ranked))
	for i, r := range ranked {
		cands[i] = candidate{mem: r.Memory, score: r.Score}
	}
	return packageItems(ctx, s, tx, view, budget, cands)
}

// packageItems builds the view-appropriate Item for each ranked candidate
// and appends them to the result in order until the token budget is
// exhausted. It is shared by search_memory and expand_memory so both
// honor identical truncation semantics.
func packageItems(ctx context.Context, s *store.Store, tx *sql.Tx, view View, budget int, cands []candidate) (*Result, error) {
	res := &Result{Items: []Item{}, RemainingBudget: budget}

	used := 0
	for _, c := range cands {
		item, err := buildItem(ctx, s, tx, view, c)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("retrieval: marshal item: %w", err)
		}
		cost := len(b) / 4
		if used+cost > budget {
			res.Truncation = Truncation{Truncated: true, Reason: "TOKEN_BUDGET"}
			break
		}
		used += cost
		res.Items = append(res.Items, item)
	}
	res.RemainingBudget = budget - used
	return res, nil
}

func buildItem(ctx context.Context, s *store.Store, tx *sql.Tx, view View, c candidate) (Item, error) {
	m := c.mem
	item := Item{ID: m.ID, Type: string(m.Type), Title: m.Title, Score: c.score}
	if view == ViewIndex {
		return item, nil
	}

	item.Summary = m.Summary
	item.Status = string(m.Status)
	item.Confidence = m.Confidence
	item.Applicability = m.Applicability
	item.Claims = m.Claims
	if view == ViewDetail {
		return item, nil
	}

	refs, err := s.ArtifactsFor(ctx, tx, m.ID)
	if err != nil {
		return Item{}, fmt.Errorf("retrieval: artifacts for %s: %w", m.ID, err)
	}
	for _, ref := range refs {
		a := Artifact{Kind: ref.Kind, Locator: ref.Locator, Classification: string(ref.Classification)}
		if ref.SnippetPolicy == model.SnippetAllowed && ref.Kind == "file" {
			if snippet, ok := readSnippet(ref.Locator); ok {
				a.Snippet = &snippet
			}
		}
		item.Artifacts = append(item.Artifacts, a)
	}
	return item, nil
}

// readSnippet reads up to DefaultSnippetBytes from locator, replacing
// invalid UTF-8. Any read failure (missing file, permission error) simply
// omits the snippet rather than failing the whole item.
func readSnippet(locator string) (string, bool) {
	f, err := os.Open(locator)
	if err != nil {
		return "", false
	}
	defer f.Close()
	buf := make([]byte, DefaultSnippetBytes)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", false
	}
	return strings.ToValidUTF8(string(buf[:n]), "�"), true
}
