package finance

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"clientbook-backend/internal/application/export"
	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/application/overview"
	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers serves the read model and triggers recalculation.
type Handlers struct {
	Reader *overview.Service
	Recalc *recalc.Service
}

// Overview GET /api/v1/finance/overview
func (h *Handlers) Overview(c *fiber.Ctx) error {
	ov, err := h.Reader.Overview(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Overview failed")
		return response.Internal(c)
	}
	return response.Success(c, "Overview", ov, fiber.Map{
		"clients":  len(ov.Clients),
		"errors":   ov.ErrorCount,
		"warnings": ov.WarnCount,
	})
}

// Client GET /api/v1/finance/clients/:id
func (h *Handlers) Client(c *fiber.Ctx) error {
	v, err := h.Reader.Client(c.UserContext(), c.Params("id"))
	if errors.Is(err, domain.ErrClientNotFound) {
		return response.NotFound(c, err.Error())
	}
	if err != nil {
		log.Error().Err(err).Str("client_id", c.Params("id")).Msg("Client view failed")
		return response.Internal(c)
	}
	return response.Success(c, "Client", v, nil)
}

// Export GET /api/v1/finance/export: the overview as an XLSX workbook.
func (h *Handlers) Export(c *fiber.Ctx) error {
	ov, err := h.Reader.Overview(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		return response.Internal(c)
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, ov); err != nil {
		log.Error().Err(err).Msg("Export failed")
		return response.Internal(c)
	}
	name := fmt.Sprintf("clientbook-%s.xlsx", ov.GeneratedAt.UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

type recalcRequest struct {
	Actor string `json:"actor"`
}

// Recalculate POST /api/v1/finance/recalculate
func (h *Handlers) Recalculate(c *fiber.Ctx) error {
	var req recalcRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}
	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = middleware.Actor(c)
	}
	res, err := h.Recalc.RecalculateAll(c.UserContext(), actor)
	return recalcResponse(c, res, err)
}

// RecalculateClient POST /api/v1/finance/clients/:id/recalculate
func (h *Handlers) RecalculateClient(c *fiber.Ctx) error {
	res, err := h.Recalc.RecalculateClient(c.UserContext(), c.Params("id"), middleware.Actor(c))
	if errors.Is(err, domain.ErrClientNotFound) {
		return response.NotFound(c, err.Error())
	}
	return recalcResponse(c, res, err)
}

func recalcResponse(c *fiber.Ctx, res recalc.Result, err error) error {
	var contention *locking.ContentionError
	switch {
	case errors.As(err, &contention):
		return response.Conflict(c, "Recalculation already in progress", fiber.Map{
			"holder":     contention.Holder,
			"ageSeconds": int64(contention.Age.Seconds()),
		})
	case errors.Is(err, locking.ErrActorRequired):
		return response.BadRequest(c, err.Error())
	case err != nil:
		return response.Error(c, "Recalculation failed", fiber.StatusInternalServerError, res)
	}
	return response.Success(c, "Recalculation complete", res, nil)
}
