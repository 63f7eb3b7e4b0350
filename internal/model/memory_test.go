package model

import (
	"testing"
	"time"
)

func validMemory() *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:                "m1",
		Scope:             Scope{TenantID: "t1", WorkspaceID: "w1"},
		Layer:             LayerL1,
		Type:              TypeObservation,
		Status:            StatusActive,
		Confidence:        0.5,
		EvidenceCount:     0,
		ConfirmationCount: 1,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastConfirmedAt:   now,
	}
}

func TestMemoryValidate(t *testing.T) {
	if err := validMemory().Validate(); err != nil {
		t.Fatalf("valid memory rejected: %v", err)
	}

	cases := []struct {
		name   string
		modify func(*Memory)
	}{
		{"confidence too high", func(m *Memory) { m.Confidence = 1.5 }},
		{"confidence negative", func(m *Memory) { m.Confidence = -0.1 }},
		{"negative evidence", func(m *Memory) { m.EvidenceCount = -1 }},
		{"zero confirmation", func(m *Memory) { m.ConfirmationCount = 0 }},
		{"updated before created", func(m *Memory) { m.UpdatedAt = m.CreatedAt.Add(-time.Hour) }},
		{"last confirmed before created", func(m *Memory) { m.LastConfirmedAt = m.CreatedAt.Add(-time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMemory()
			tc.modify(m)
			if err := m.Validate(); err == nil {
				t.Fatalf("expected validation error, got none")
			}
		})
	}
}

func TestMemoryTypeBoost(t *testing.T) {
	cases := []struct {
		typ  MemoryType
		want float64
	}{
		{TypeDecision, 1.0},
		{TypeContract, 1.0},
		{TypeVerifiedFact, 1.0},
		{TypeEpisodeSummary, 0.8},
		{TypeObservation, 0.5},
		{TypeStableConstraint, 0.5},
	}
	for _, tc := range cases {
		if got := tc.typ.TypeBoost(); got != tc.want {
			t.Errorf("TypeBoost(%s) = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestL2Types(t *testing.T) {
	for typ := range L2Types {
		if !L2Types[typ] {
			t.Errorf("L2Types[%s] should be true", typ)
		}
	}
	if L2Types[TypeObservation] {
		t.Errorf("Observation must not be an L2 type")
	}
}
