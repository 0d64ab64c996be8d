package logs

import (
	"context"

	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// MaxLimit caps ?limit=.
const MaxLimit = 1000

type Reader interface {
	ReadLogs(ctx context.Context, limit int) ([]domain.LogEntry, error)
}

type Handlers struct {
	Reader Reader
}

// List GET /api/v1/logs?limit=: newest first.
func (h *Handlers) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return response.BadRequest(c, "limit must not be negative")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	entries, err := h.Reader.ReadLogs(c.UserContext(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Read logs failed")
		return response.Internal(c)
	}
	return response.Success(c, "Logs", entries, fiber.Map{"count": len(entries)})
}
