package model

import "testing"

func TestSanitizeRel(t *testing.T) {
	cases := []struct{ in, want string }{
		{"depends_on", "depends_on"},
		{"depends-on!", "dependson"},
		{"Rel 123", "Rel123"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeRel(tc.in); got != tc.want {
			t.Errorf("SanitizeRel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidRel(t *testing.T) {
	if !ValidRel("depends_on") {
		t.Errorf("expected depends_on to be valid")
	}
	if ValidRel("") {
		t.Errorf("expected empty rel to be invalid")
	}
	if ValidRel("has space") {
		t.Errorf("expected relation with space to be invalid")
	}
}

func TestEdgeValidate(t *testing.T) {
	valid := Edge{FromID: "a", ToID: "b", Rel: "depends_on"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid edge rejected: %v", err)
	}

	missingFrom := Edge{ToID: "b", Rel: "depends_on"}
	if err := missingFrom.Validate(); err == nil {
		t.Fatalf("expected error for missing from_id")
	}

	badRel := Edge{FromID: "a", ToID: "b", Rel: "has space"}
	if err := badRel.Validate(); err == nil {
		t.Fatalf("expected error for invalid rel")
	}
}
