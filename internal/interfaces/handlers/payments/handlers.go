package payments

import (
	"encoding/json"
	"errors"
	"time"

	paymentsvc "clientbook-backend/internal/application/payments"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/response"
	"clientbook-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *paymentsvc.Service
}

type recordRequest struct {
	ClientID string      `json:"clientId"`
	Date     string      `json:"date"`
	Amount   interface{} `json:"amount"`
	Type     string      `json:"type"`
	Mode     string      `json:"mode"`
	Note     string      `json:"note"`
}

// Record POST /api/v1/payments
func (h *Handlers) Record(c *fiber.Ctx) error {
	var req recordRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, "clientId and amount are required")
	}
	date, ok := validation.ParseDate(req.Date, time.Time{})
	if !ok {
		return response.BadRequest(c, "date must be YYYY-MM-DD or RFC3339")
	}
	out, err := h.Service.Record(c.UserContext(), paymentsvc.Input{
		ClientID: req.ClientID,
		Date:     date,
		Amount:   domain.ParseAmount(req.Amount),
		Type:     req.Type,
		Mode:     req.Mode,
		Note:     req.Note,
	}, middleware.Actor(c))
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, paymentsvc.ErrInvalidMode):
		return response.BadRequest(c, err.Error())
	case err != nil:
		log.Error().Err(err).Str("client_id", req.ClientID).Msg("Payment record failed")
		return response.Internal(c)
	}
	return response.SuccessCreated(c, "Payment recorded", out, nil)
}
