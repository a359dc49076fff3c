package unit

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"maktaba-backend/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	librarian := domain.Role{
		Name: "librarian",
		Permissions: []domain.Permission{
			domain.PermCheckout, domain.PermCheckin, domain.PermLoansView,
		},
	}

	assert.True(t, librarian.HasPermission(domain.PermCheckout))
	assert.False(t, librarian.HasPermission(domain.PermSettingsManage))

	assert.True(t, librarian.HasAnyPermission(domain.PermSettingsManage, domain.PermCheckin))
	assert.False(t, librarian.HasAnyPermission(domain.PermSettingsManage, domain.PermUsersManage))

	assert.True(t, librarian.HasAllPermissions(domain.PermCheckout, domain.PermCheckin))
	assert.False(t, librarian.HasAllPermissions(domain.PermCheckout, domain.PermFeesCollect))
}

func TestUnknownPermissionCodeNeverMatches(t *testing.T) {
	// Storage may hold codes this build does not know about; they must be
	// inert rather than an error.
	role := domain.Role{Name: "custom", Permissions: []domain.Permission{"circulation.teleport"}}

	assert.False(t, role.HasPermission(domain.PermCheckout))
	assert.True(t, role.HasPermission("circulation.teleport"))
}

func TestActorChecks(t *testing.T) {
	staff := staffActor()
	assert.True(t, staff.IsStaff())
	assert.True(t, staff.Can(domain.PermFeesCollect))

	patron := patronActor(uuid.New())
	assert.False(t, patron.IsStaff())
	assert.True(t, patron.Can(domain.PermLoansView))
	assert.False(t, patron.Can(domain.PermRenew))
	assert.True(t, patron.CanAny(domain.PermRenew, domain.PermLoansView))
}
