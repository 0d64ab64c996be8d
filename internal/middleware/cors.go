package middleware

import (
	"strings"

	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig holds CORS configuration. AllowedSuffix may list several
// comma-separated suffixes (e.g. ".example.com,.example.dev").
type CORSConfig struct {
	AllowedSuffix string
	DevPassword   string
}

func (cfg CORSConfig) suffixes() []string {
	var out []string
	for _, s := range strings.Split(cfg.AllowedSuffix, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// CORS allows origins ending with one of the configured suffixes, local dev
// preflights, and requests carrying the dev-password header. Credentials are
// allowed so the session cookie travels.
func CORS(cfg CORSConfig) fiber.Handler {
	suffixes := cfg.suffixes()
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		// No origin (same-origin or tools)
		if origin == "" {
			return c.Next()
		}
		if c.Method() == fiber.MethodOptions && isLocalOrigin(origin) {
			setCORSHeaders(c, origin)
			return c.SendStatus(fiber.StatusNoContent)
		}
		lower := strings.ToLower(origin)
		for _, s := range suffixes {
			if strings.HasSuffix(lower, s) {
				setCORSHeaders(c, origin)
				if c.Method() == fiber.MethodOptions {
					return c.SendStatus(fiber.StatusNoContent)
				}
				return c.Next()
			}
		}
		if cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword {
			setCORSHeaders(c, origin)
			return c.Next()
		}
		return response.Forbidden(c, "Not allowed by CORS")
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set("Access-Control-Allow-Origin", origin)
	c.Set("Access-Control-Allow-Credentials", "true")
	c.Set("Access-Control-Allow-Headers", "Content-Type, dev-password, "+traceIDHeader)
	c.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	c.Set("Access-Control-Expose-Headers", traceIDHeader+", Content-Disposition")
	c.Set("Vary", "Origin")
}
