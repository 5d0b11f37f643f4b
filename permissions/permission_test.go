package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodge/permissions"
	"lodge/shared/constant"
)

func TestGet(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	roles := []string{constant.RoleSuperAdmin, constant.RoleAdmin, constant.RoleStaff}
	seen := map[string]bool{}

	for _, endpoint := range data.Endpoints {
		key := endpoint.Method + " " + endpoint.Path
		assert.False(t, seen[key], "duplicate endpoint %s", key)
		seen[key] = true

		for _, role := range endpoint.Permissions {
			assert.Contains(t, roles, role, "unknown role on %s", key)
		}
	}
}

func TestFindPermissions(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	t.Run("group root reported with trailing slash", func(t *testing.T) {
		permission := data.FindPermissions("/v1/rooms/", http.MethodGet)

		assert.True(t, permission.Skip)
	})

	t.Run("method is case insensitive", func(t *testing.T) {
		permission := data.FindPermissions("/v1/bookings/{id}/approve", "post")

		assert.ElementsMatch(t, []string{constant.RoleSuperAdmin, constant.RoleAdmin}, permission.Permissions)
	})

	t.Run("staff can check guests in", func(t *testing.T) {
		permission := data.FindPermissions("/v1/bookings/{id}/check-in", http.MethodPost)

		assert.Contains(t, permission.Permissions, constant.RoleStaff)
	})

	t.Run("only superadmin deletes users", func(t *testing.T) {
		permission := data.FindPermissions("/v1/users/{id}", http.MethodDelete)

		assert.Equal(t, []string{constant.RoleSuperAdmin}, permission.Permissions)
	})

	t.Run("unknown route", func(t *testing.T) {
		assert.Equal(t, permissions.Permission{}, data.FindPermissions("/v1/unknown", http.MethodGet))
	})
}
