package model

import (
	"fmt"
	"regexp"
	"time"
)

// relPattern matches the sanitized alphanumeric-underscore rel label
// required of both L2 edges and graph-accelerator edge projections.
var relPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// SanitizeRel strips every character that is not alphanumeric or
// underscore from a relation label, per the L2 Edge invariant.
func SanitizeRel(rel string) string {
	out := make([]byte, 0, len(rel))
	for i := 0; i < len(rel); i++ {
		c := rel[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		}
	}
	return string(out)
}

// ValidRel reports whether rel is already a valid relation label.
func ValidRel(rel string) bool {
	return rel != "" && relPattern.MatchString(rel)
}

// Edge is an L2 Edge: (tenant, workspace, from, rel, to, weight, created_at).
// Its primary key is the 5-tuple excluding weight and created_at, which
// makes insertion idempotent (re-linking with a new weight updates it).
type Edge struct {
	TenantID    string
	WorkspaceID string
	FromID      string
	ToID        string
	Rel         string
	Weight      float64
	CreatedAt   time.Time
}

func (e Edge) Validate() error {
	if e.FromID == "" || e.ToID == "" {
		return fmt.Errorf("edge: from/to id required")
	}
	if !ValidRel(e.Rel) {
		return fmt.Errorf("edge: rel %q must be alphanumeric/underscore", e.Rel)
	}
	return nil
}

// Classification is the sensitivity label on an artifact.
type Classification string

const (
	ClassificationPublic     Classification = "public"
	ClassificationInternal   Classification = "internal"
	ClassificationRestricted Classification = "restricted"
)

// SnippetPolicy controls whether retrieval may inline an artifact's bytes.
type SnippetPolicy string

const (
	SnippetAllowed   SnippetPolicy = "allowed"
	SnippetForbidden SnippetPolicy = "forbidden"
)

// ArtifactRef is an out-of-band evidence payload attached to a memory.
// Primary key is (memory_id, kind, locator).
type ArtifactRef struct {
	MemoryID       string
	Layer          Layer
	Kind           string
	Locator        string
	Hash           *string
	Classification Classification
	SnippetPolicy  SnippetPolicy
	CreatedAt      time.Time
}

// Tombstone is the immutable record that a forgetting operation ran
// against a given selector.
type Tombstone struct {
	TenantID     string
	WorkspaceID  string
	SelectorHash string
	CreatedAt    time.Time
}
