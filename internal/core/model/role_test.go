package model

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(string(r))
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", r, err)
		}
		if got != r {
			t.Errorf("ParseRole(%q) = %q", r, got)
		}
	}

	for _, bad := range []string{"", "admin", "Owner", "superuser", "org_admin"} {
		if _, err := ParseRole(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseRole(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Role
		want Comparison
	}{
		{RoleOwner, RoleOrgAdmin, Higher},
		{RoleOrgAdmin, RoleLead, Higher},
		{RoleLead, RoleMember, Higher},
		{RoleMember, RoleOwner, Lower},
		{RoleLead, RoleLead, Equal},
		{Role("bogus"), RoleMember, Lower},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAtLeast(t *testing.T) {
	roles := Roles()
	for i, role := range roles {
		for j, threshold := range roles {
			// Roles() is ordered from highest to lowest.
			want := i <= j
			if got := AtLeast(role, threshold); got != want {
				t.Errorf("AtLeast(%s, %s) = %v, want %v", role, threshold, got, want)
			}
		}
	}
	if AtLeast(Role("root"), RoleMember) {
		t.Error("unknown role satisfied member threshold")
	}
	if AtLeast(RoleOwner, Role("")) {
		t.Error("empty threshold was satisfied")
	}
}

func TestEffectiveRole(t *testing.T) {
	u := NewUser("a@example.com", "", "A", RoleOwner)
	if got := u.EffectiveRole(); got != RoleMember {
		t.Errorf("owner role without owner flag = %s, want member", got)
	}
	u.IsOwner = true
	if got := u.EffectiveRole(); got != RoleOwner {
		t.Errorf("owner flag = %s, want owner", got)
	}
	u = NewUser("b@example.com", "", "B", Role("weird"))
	if got := u.EffectiveRole(); got != RoleMember {
		t.Errorf("invalid role = %s, want member", got)
	}
}
