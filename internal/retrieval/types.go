// Package retrieval implements hybrid lexical+vector search across L1 and
// L2, the three-view result packaging (index/detail/evidence), and
// token-budget truncation, shared between search_memory and expand_memory.
package retrieval

import (
	"errors"

	"github.com/untoldecay/memlayer/internal/model"
)

// View selects how much of a memory's payload is packaged into a result item.
type View string

const (
	ViewIndex    View = "index"
	ViewDetail   View = "detail"
	ViewEvidence View = "evidence"
)

// DefaultSnippetBytes bounds how much of an artifact file is inlined into
// an evidence-view item.
const DefaultSnippetBytes = 1024

// ErrTokenBudget names the TOKEN_BUDGET condition for error translation.
// No retrieval function returns it: truncation is reported in
// Result.Truncation, and the RPC surface adds the TOKEN_BUDGET code to an
// ok response when that flag is set.
var ErrTokenBudget = errors.New("retrieval: result truncated by token budget")

// Filters narrows scope filtering and supplies the optional query embedding.
type Filters struct {
	Type           model.MemoryType
	Status         model.Status
	QueryEmbedding []float32
	// VectorTopN bounds the pre-fusion vector candidate pool; default 2*topK.
	VectorTopN int
}

// Artifact is the packaged evidence-view representation of an ArtifactRef,
// with an optional inlined snippet.
type Artifact struct {
	Kind           string  `json:"kind"`
	Locator        string  `json:"locator"`
	Classification string  `json:"classification"`
	Snippet        *string `json:"snippet,omitempty"`
}

// Item is one packaged result row. Fields are populated progressively by
// view: index always sets ID/Type/Title/Score; detail adds
// Summary/Status/Confidence/Applicability/Claims; evidence adds Artifacts.
type Item struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Title string  `json:"title"`
	Score float64 `json:"score"`

	Summary       string            `json:"summary,omitempty"`
	Status        string            `json:"status,omitempty"`
	Confidence    float64           `json:"confidence,omitempty"`
	Applicability map[string]string `json:"applicability,omitempty"`
	Claims        []string          `json:"claims,omitempty"`

	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Truncation reports whether a result was cut short of its candidate set.
type Truncation struct {
	Truncated bool   `json:"truncated"`
	Reason    string `json:"reason,omitempty"`
}

// Path is one edge walked while expanding from a seed memory.
type Path struct {
	From string `json:"from"`
	Rel  string `json:"rel"`
	To   string `json:"to"`
}

// Result is the packaged response shared by search_memory and expand_memory.
// Paths is only populated by expand_memory.
type Result struct {
	Items           []Item     `json:"items"`
	Truncation      Truncation `json:"truncation"`
	RemainingBudget int        `json:"remaining_budget"`
	Paths           []Path     `json:"paths,omitempty"`
}

// candidate is a scoring row before view packaging. Ranked is the exported
// alias expand_memory (internal/graph) uses to hand pre-scored neighbor
// rows to Package.
type candidate struct {
	mem   *model.Memory
	score float64
}

// Ranked pairs a memory with the score it should display in its item.
// expand_memory has no fusion score to compute, so it packages neighbor
// rows with a score of 0.
type Ranked struct {
	Memory *model.Memory
	Score  float64
}
