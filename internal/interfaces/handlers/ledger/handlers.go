package ledger

import (
	"encoding/json"
	"errors"
	"time"

	ledgersvc "clientbook-backend/internal/application/ledger"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/response"
	"clientbook-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *ledgersvc.Service
}

type recordRequest struct {
	MemberID string      `json:"memberId"`
	ClientID string      `json:"clientId"`
	Date     string      `json:"date"`
	Amount   interface{} `json:"amount"`
	Type     string      `json:"type"`
	Reason   string      `json:"reason"`
}

// Record POST /api/v1/ledger
func (h *Handlers) Record(c *fiber.Ctx) error {
	var req recordRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, ledgersvc.ErrMemberRequired.Error())
	}
	date, ok := validation.ParseDate(req.Date, time.Time{})
	if !ok {
		return response.BadRequest(c, "date must be YYYY-MM-DD or RFC3339")
	}
	e, err := h.Service.Record(c.UserContext(), ledgersvc.Input{
		MemberID: req.MemberID,
		ClientID: req.ClientID,
		Date:     date,
		Amount:   domain.ParseAmount(req.Amount),
		Type:     req.Type,
		Reason:   req.Reason,
	}, middleware.Actor(c))
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, ledgersvc.ErrMemberRequired),
		errors.Is(err, ledgersvc.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, err.Error())
	case err != nil:
		log.Error().Err(err).Str("member_id", req.MemberID).Msg("Ledger record failed")
		return response.Internal(c)
	}
	return response.SuccessCreated(c, "Ledger entry recorded", e, nil)
}
