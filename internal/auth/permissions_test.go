package auth

import "testing"

func TestPermissionSetHas(t *testing.T) {
	cases := []struct {
		name     string
		actions  []string
		admin    bool
		check    string
		expected bool
	}{
		{name: "granted action", actions: []string{"order:read", "order:update"}, check: "order:read", expected: true},
		{name: "missing action", actions: []string{"order:read"}, check: "order:delete", expected: false},
		{name: "admin bypasses grants", actions: nil, admin: true, check: "anything:at-all", expected: true},
		{name: "whitespace trimmed", actions: []string{"  dict:read  "}, check: "dict:read", expected: true},
		{name: "empty entries ignored", actions: []string{"", "  "}, check: "", expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := NewPermissionSet(tc.actions, tc.admin)
			if got := set.Has(tc.check); got != tc.expected {
				t.Fatalf("Has(%q) = %v, expected %v", tc.check, got, tc.expected)
			}
		})
	}
}

func TestPermissionSetActions(t *testing.T) {
	set := NewPermissionSet([]string{"order:read", "dict:read"}, false)
	if set.IsAdmin() {
		t.Fatalf("expected non-admin set")
	}
	actions := set.Actions()
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %v", actions)
	}
}
