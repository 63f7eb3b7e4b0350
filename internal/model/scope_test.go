package model

import "testing"

func TestScopeValidate(t *testing.T) {
	cases := []struct {
		name    string
		scope   Scope
		wantErr bool
	}{
		{"valid minimal", Scope{TenantID: "t1", WorkspaceID: "w1"}, false},
		{"missing tenant", Scope{WorkspaceID: "w1"}, true},
		{"missing workspace", Scope{TenantID: "t1"}, true},
		{"missing both", Scope{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scope.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
