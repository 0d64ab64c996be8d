package bootstrap

import (
	"clientbook-backend/internal/config"
	"clientbook-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployment (the api handler imports this package, not internal).
// Scheduled recalculation does not run here; trigger it through POST /api/v1/finance/recalculate.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, _, err := router.CreateApp(cfg)
	return app, err
}
