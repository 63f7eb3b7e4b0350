package governance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Selector describes a forgetting request: AND semantics across whichever
// fields are set. Only UserID, StartTime, and EndTime are representable
// today.
type Selector struct {
	UserID    string     `json:"user_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Hash canonicalizes the selector to sorted-key JSON and returns its
// SHA-256 hex digest, so permutations of the same selector produce the
// same tombstone.
func (sel Selector) Hash() (string, error) {
	m := map[string]any{}
	if sel.UserID != "" {
		m["user_id"] = sel.UserID
	}
	if sel.StartTime != nil {
		m["start_time"] = sel.StartTime.UTC().Format(time.RFC3339Nano)
	}
	if sel.EndTime != nil {
		m["end_time"] = sel.EndTime.UTC().Format(time.RFC3339Nano)
	}
	// encoding/json sorts map[string]any keys lexicographically, which is
	// exactly the canonicalization the tombstone hash needs.
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// whereClause builds the SQL fragment and bound args implementing the
// selector's AND semantics against a table with user_id and created_at
// columns. includeUserID lets callers omit the user_id predicate entirely
// when the target table has no such column (L0).
func (sel Selector) whereClause(includeUserID bool) (string, []any) {
	var clauses []string
	var args []any
	if includeUserID && sel.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, sel.UserID)
	}
	if sel.StartTime != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, sel.StartTime.UTC())
	}
	if sel.EndTime != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, sel.EndTime.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}
