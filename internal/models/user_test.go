package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRolePredicates(t *testing.T) {
	tests := []struct {
		name        string
		role        Role
		superuser   bool
		wantAdmin   bool
		wantManager bool
		wantViewer  bool
	}{
		{name: "administrator", role: RoleAdministrator, wantAdmin: true},
		{name: "manager", role: RoleManager, wantManager: true},
		{name: "viewer", role: RoleViewer, wantViewer: true},
		{name: "superuser without role", role: RoleUnknown, superuser: true, wantAdmin: true},
		{name: "superuser viewer", role: RoleViewer, superuser: true, wantAdmin: true, wantViewer: true},
		{name: "superuser manager", role: RoleManager, superuser: true, wantAdmin: true, wantManager: true},
		{name: "empty role", role: RoleUnknown},
		{name: "legacy staff value", role: Role("staff")},
		{name: "case mismatch", role: Role("Admin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Role: tt.role, IsSuperuser: tt.superuser}

			assert.Equal(t, tt.wantAdmin, u.IsAdministrator(), "IsAdministrator")
			assert.Equal(t, tt.wantManager, u.IsManager(), "IsManager")
			assert.Equal(t, tt.wantViewer, u.IsViewer(), "IsViewer")
		})
	}
}

func TestUserRolePredicates_MutuallyExclusiveWithoutSuperuser(t *testing.T) {
	for _, role := range []Role{RoleAdministrator, RoleManager, RoleViewer, RoleUnknown, "other"} {
		u := &User{Role: role}

		count := 0
		for _, ok := range []bool{u.IsAdministrator(), u.IsManager(), u.IsViewer()} {
			if ok {
				count++
			}
		}

		if role.Valid() {
			assert.Equal(t, 1, count, "role %q", role)
		} else {
			assert.Zero(t, count, "role %q", role)
		}
	}
}

func TestNilUserHasNoCapabilities(t *testing.T) {
	var u *User

	assert.False(t, u.IsAdministrator())
	assert.False(t, u.IsManager())
	assert.False(t, u.IsViewer())
	assert.Equal(t, "anonymous", u.String())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdministrator, ParseRole("admin"))
	assert.Equal(t, RoleManager, ParseRole("manager"))
	assert.Equal(t, RoleViewer, ParseRole("viewer"))
	assert.Equal(t, RoleUnknown, ParseRole("superuser"))
	assert.Equal(t, RoleUnknown, ParseRole(""))
}
