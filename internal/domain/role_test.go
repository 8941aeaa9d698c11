package domain

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"leader", "staff", "supervisor", "admin"} {
		role, ok := ParseRole(valid)
		if !ok || string(role) != valid {
			t.Errorf("ParseRole(%q) = (%q, %v)", valid, role, ok)
		}
	}
	for _, invalid := range []string{"", "Admin", "root", "superuser"} {
		if _, ok := ParseRole(invalid); ok {
			t.Errorf("ParseRole(%q) accepted", invalid)
		}
	}
}

func TestSelfRegisterRoleDefaultDeny(t *testing.T) {
	cases := map[string]Role{
		"leader":     RoleLeader,
		"staff":      RoleStaff,
		"supervisor": RoleSupervisor,
		"admin":      RoleLeader, // never grantable via self-registration
		"":           RoleLeader,
		"bogus":      RoleLeader,
	}
	for requested, want := range cases {
		if got := SelfRegisterRole(requested); got != want {
			t.Errorf("SelfRegisterRole(%q) = %q, want %q", requested, got, want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
