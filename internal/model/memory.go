package model

import (
	"fmt"
	"time"
)

// Layer identifies a durability tier.
type Layer string

const (
	LayerL0 Layer = "L0"
	LayerL1 Layer = "L1"
	LayerL2 Layer = "L2"
)

// MemoryType enumerates the concrete node kinds carried by L1 and L2.
type MemoryType string

const (
	TypeObservation      MemoryType = "Observation"
	TypeEpisodeSummary   MemoryType = "EpisodeSummary"
	TypeDecision         MemoryType = "Decision"
	TypeContract         MemoryType = "Contract"
	TypeVerifiedFact     MemoryType = "VerifiedFact"
	TypeStableConstraint MemoryType = "StableConstraint"
)

// L2Types is the closed set of types a promotion draft may take.
var L2Types = map[MemoryType]bool{
	TypeDecision:         true,
	TypeContract:         true,
	TypeVerifiedFact:     true,
	TypeStableConstraint: true,
}

// Status is the closed tagged status enumeration shared by L1 and L2,
// minus "archived" which only L1 Observations may reach (via compaction).
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
	StatusTombstoned Status = "tombstoned"
	StatusMerged     Status = "merged"
	StatusArchived   Status = "archived"
)

// TypeBoost returns the weight retrieval's fusion formula gives a memory
// type: canonical L2 facts rank highest, episode summaries next, raw
// observations last.
func (t MemoryType) TypeBoost() float64 {
	switch t {
	case TypeDecision, TypeContract, TypeVerifiedFact:
		return 1.0
	case TypeEpisodeSummary:
		return 0.8
	default:
		return 0.5
	}
}

// Memory is a consolidated L1 record (Observation | EpisodeSummary) or a
// canonical L2 node (Decision | Contract | VerifiedFact | StableConstraint).
// The Layer field distinguishes which table a given instance belongs to;
// Version and SupersedesID are only meaningful for L2.
type Memory struct {
	ID     string
	Scope  Scope
	Layer  Layer
	Type   MemoryType
	Status Status

	Title         string
	Summary       string
	Tags          []string
	Entities      []string
	Claims        []string
	Applicability map[string]string

	Confidence        float64
	EvidenceCount     int
	ConfirmationCount int

	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastConfirmedAt time.Time
	TTLSeconds      *int64

	Embedding []float32

	Version      int
	SupersedesID *string

	// ContentHash is a supplemental, unindexed dedup aid; no invariant
	// depends on it.
	ContentHash string

	// CompactionLevel distinguishes an EpisodeSummary synthesized by
	// gc_compact from one created by commit_episode. Zero for every node
	// gc_compact didn't mint.
	CompactionLevel int
}

// Validate checks the invariants that hold for every L1/L2 row regardless
// of type: confidence bounds, non-negative evidence, positive confirmation
// count, and timestamp ordering.
func (m *Memory) Validate() error {
	if m.Confidence < 0 || m.Confidence > 1 {
		return fmt.Errorf("memory: confidence %v out of range [0,1]", m.Confidence)
	}
	if m.EvidenceCount < 0 {
		return fmt.Errorf("memory: evidence_count must be >= 0")
	}
	if m.ConfirmationCount < 1 {
		return fmt.Errorf("memory: confirmation_count must be >= 1")
	}
	if m.UpdatedAt.Before(m.CreatedAt) {
		return fmt.Errorf("memory: updated_at before created_at")
	}
	if m.LastConfirmedAt.Before(m.CreatedAt) {
		return fmt.Errorf("memory: last_confirmed_at before created_at")
	}
	return nil
}

// Event is a raw L0 record. Events are never mutated after insert; they
// are only destroyed by the TTL sweep once ExpiresAt has passed.
type Event struct {
	ID      string
	Scope   Scope
	Payload []byte

	// SourceSession is a best-effort observability tag; no operation
	// reads it back.
	SourceSession string

	// ContentHash is the SHA-256 of Payload. Nothing dedups on it at
	// insert; doctor --duplicates reports events that share one.
	ContentHash string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// DefaultEventTTL is the duration an L0 event survives before the TTL
// sweep is eligible to delete it.
const DefaultEventTTL = 24 * time.Hour
