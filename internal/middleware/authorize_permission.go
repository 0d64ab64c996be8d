package middleware

import (
	"clientbook-backend/internal/pkg/constants"
	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthorizePermission allows the request when the session role holds
// permission (see constants.PermissionRoles). A session without a valid role
// is treated as locked. Unconfigured permission -> 500.
func AuthorizePermission(permission string) fiber.Handler {
	roles, configured := constants.PermissionRoles[permission]
	configured = configured && len(roles) > 0
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if !constants.IsValidRole(role) {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !configured {
			log.Error().Str("permission", permission).Msg("Permission has no roles configured")
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !constants.AllowedRole(permission, role) {
			log.Warn().Str("actor", Actor(c)).Str("role", role).Str("permission", permission).Msg("Permission denied")
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}

// Role returns the role the session was unlocked with, or "".
func Role(c *fiber.Ctx) string {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return ""
	}
	r, _ := m["role"].(string)
	return r
}
