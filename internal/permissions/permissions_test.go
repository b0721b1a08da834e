package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outsourceats/hirex/internal/models"
)

func TestAdminBypassesMatrix(t *testing.T) {
	for _, perm := range []Permission{
		CreateUser, DeleteClient, ApprovePitch, DeleteApplication,
		SendOffer, DeleteJoining, ExportData, Permission("made_up_permission"),
	} {
		assert.True(t, Has(models.RoleAdmin, perm), "admin must hold %s", perm)
	}
}

func TestRoleMatrix(t *testing.T) {
	tests := []struct {
		role models.Role
		perm Permission
		want bool
	}{
		{models.RoleRecruiter, CreateApplication, true},
		{models.RoleRecruiter, CreateCandidate, true},
		{models.RoleRecruiter, CreateClient, false},
		{models.RoleRecruiter, DeleteApplication, false},
		{models.RoleRecruiter, CreateOffer, false},
		{models.RoleRecruiter, CreateJoining, true},

		{models.RoleAccountManager, CreateClient, true},
		{models.RoleAccountManager, CreateOffer, true},
		{models.RoleAccountManager, CreateApplication, false},
		{models.RoleAccountManager, DeleteClient, false},

		{models.RoleBDSales, CreatePitch, true},
		{models.RoleBDSales, SendPitch, true},
		{models.RoleBDSales, ApprovePitch, false},
		{models.RoleBDSales, ViewOffer, false},

		{models.RoleFinance, ExportData, true},
		{models.RoleFinance, ViewOffer, true},
		{models.RoleFinance, UpdateClient, false},

		{models.RoleClient, ViewApplication, true},
		{models.RoleClient, ViewInterview, true},
		{models.RoleClient, CreateApplication, false},
		{models.RoleClient, ViewOffer, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Has(tt.role, tt.perm), "%s / %s", tt.role, tt.perm)
	}
}

func TestHasIsTotalAndDeterministic(t *testing.T) {
	// Unknown combinations return false rather than erroring.
	assert.False(t, Has(models.Role("ghost"), ViewClient))
	assert.False(t, Has(models.RoleRecruiter, Permission("ghost_permission")))

	// Same inputs, same answer.
	for i := 0; i < 3; i++ {
		assert.True(t, Has(models.RoleFinance, ViewReports))
		assert.False(t, Has(models.RoleFinance, ManageRoles))
	}
}

func TestRequire(t *testing.T) {
	assert.NoError(t, Require(models.RoleRecruiter, CreateApplication))

	err := Require(models.RoleFinance, CreateApplication)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "create_application")
}

func TestForRoleAdminCoversEveryMappedPermission(t *testing.T) {
	all := ForRole(models.RoleAdmin)
	seen := make(map[Permission]bool, len(all))
	for _, p := range all {
		seen[p] = true
	}
	for role, set := range rolePermissions {
		for p := range set {
			assert.True(t, seen[p], "admin missing %s held by %s", p, role)
		}
	}
}
