package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(ViewFinance, Viewer))
	assert.True(t, AllowedRole(Recalculate, Admin))
	assert.False(t, AllowedRole(Recalculate, Viewer))
	assert.False(t, AllowedRole("unknown", Admin))
}

func TestEveryPermissionHasRoles(t *testing.T) {
	for p, roles := range PermissionRoles {
		assert.NotEmpty(t, roles, p)
		for _, r := range roles {
			assert.True(t, IsValidRole(r), "%s: %s", p, r)
		}
	}
}
