package ingestion

import "github.com/untoldecay/memlayer/internal/model"

// EpisodeDraft is the payload commit_episode upserts into an EpisodeSummary.
type EpisodeDraft struct {
	Title         string            `json:"title"`
	Summary       string            `json:"summary"`
	Tags          []string          `json:"tags"`
	Entities      []string          `json:"entities"`
	Claims        []string          `json:"claims"`
	Applicability map[string]string `json:"applicability"`
}

// PromotionDraft is the candidate L2 node promote_to_l2 validates and, on
// acceptance, persists.
type PromotionDraft struct {
	Type          model.MemoryType  `json:"type"`
	Title         string            `json:"title"`
	Summary       string            `json:"summary"`
	Tags          []string          `json:"tags"`
	Entities      []string          `json:"entities"`
	Claims        []string          `json:"claims"`
	Applicability map[string]string `json:"applicability"`
	Embedding     []float32         `json:"embedding,omitempty"`
	SupersedesID  *string           `json:"supersedes_id,omitempty"`
}

// UpsertEventResult is upsert_event's idempotent return value.
type UpsertEventResult struct {
	ID    string `json:"id"`
	Layer string `json:"layer"`
	L1ID  string `json:"l1_id,omitempty"`
}

// CommitEpisodeResult is commit_episode's idempotent return value.
type CommitEpisodeResult struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// PromoteResult is promote_to_l2's idempotent return value.
type PromoteResult struct {
	ID string `json:"id"`
}

// LinkResult is link_memories's idempotent return value.
type LinkResult struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Rel    string `json:"rel"`
}
