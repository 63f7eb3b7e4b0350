// Package model defines the typed entities of the memory engine and their
// field-level validation: scopes, the three durability tiers, edges,
// artifact references, and tombstones. None of these types touch storage;
// they are the vocabulary the store, ingestion, retrieval, graph, and
// governance packages share.
package model

import "fmt"

// Scope is the mandatory tenant/workspace addressing tuple plus the
// optional qualifiers a memory item may be further scoped by.
type Scope struct {
	TenantID    string `json:"tenant_id"`
	WorkspaceID string `json:"workspace_id"`
	RepoID      string `json:"repo_id,omitempty"`
	Module      string `json:"module,omitempty"`
	Environment string `json:"environment,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
}

// Validate checks that the mandatory scope fields are present.
func (s Scope) Validate() error {
	if s.TenantID == "" {
		return fmt.Errorf("scope: tenant_id is required")
	}
	if s.WorkspaceID == "" {
		return fmt.Errorf("scope: workspace_id is required")
	}
	return nil
}
