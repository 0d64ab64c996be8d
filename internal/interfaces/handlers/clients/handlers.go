package clients

import (
	"encoding/json"
	"errors"

	clientsvc "clientbook-backend/internal/application/clients"
	"clientbook-backend/internal/application/pricing"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const errBody = "Invalid request body"

// Handlers bundles client lifecycle and pricing handlers.
type Handlers struct {
	Clients *clientsvc.Service
	Pricing *pricing.Service
}

// costsBody accepts numbers or numeric strings ("8,000", "₹75").
type costsBody struct {
	ServiceCost            interface{} `json:"serviceCost"`
	DomainCharged          interface{} `json:"domainCharged"`
	ActualDomainCost       interface{} `json:"actualDomainCost"`
	ExtraFeatures          interface{} `json:"extraFeatures"`
	ExtraProductionCharges interface{} `json:"extraProductionCharges"`
}

func (b costsBody) costs() domain.CostInputs {
	return domain.CostInputs{
		ServiceCost:            domain.ParseAmount(b.ServiceCost),
		DomainCharged:          domain.ParseAmount(b.DomainCharged),
		ActualDomainCost:       domain.ParseAmount(b.ActualDomainCost),
		ExtraFeatures:          domain.ParseAmount(b.ExtraFeatures),
		ExtraProductionCharges: domain.ParseAmount(b.ExtraProductionCharges),
	}
}

// patch keeps absent and null keys unset so the stored value survives.
func (b costsBody) patch() pricing.CostPatch {
	return pricing.CostPatch{
		ServiceCost:            amountOrNil(b.ServiceCost),
		DomainCharged:          amountOrNil(b.DomainCharged),
		ActualDomainCost:       amountOrNil(b.ActualDomainCost),
		ExtraFeatures:          amountOrNil(b.ExtraFeatures),
		ExtraProductionCharges: amountOrNil(b.ExtraProductionCharges),
	}
}

func amountOrNil(v interface{}) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := domain.ParseAmount(v)
	return &d
}

type createRequest struct {
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Costs  costsBody `json:"costs"`
}

// Create POST /api/v1/clients
func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, errBody)
	}
	client, err := h.Clients.Create(c.UserContext(), clientsvc.CreateInput{
		Name:   req.Name,
		Status: req.Status,
		Costs:  req.Costs.costs(),
	}, middleware.Actor(c))
	if err != nil {
		return clientError(c, err)
	}
	return response.SuccessCreated(c, "Client created", client, nil)
}

type pricingRequest struct {
	Costs   *costsBody `json:"costs"`
	Version *int       `json:"version"`
}

// UpdatePricing PATCH /api/v1/clients/:id/pricing. Cost keys left out of the
// body keep their stored values.
func (h *Handlers) UpdatePricing(c *fiber.Ctx) error {
	var req pricingRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, errBody)
	}
	if req.Costs == nil || req.Version == nil {
		return response.BadRequest(c, "costs and version are required")
	}
	res, err := h.Pricing.PatchPricing(c.UserContext(), c.Params("id"), req.Costs.patch(), *req.Version, middleware.Actor(c))
	if err != nil {
		log.Error().Err(err).Str("client_id", c.Params("id")).Msg("Pricing update failed")
		return response.Internal(c)
	}
	switch res.Kind {
	case pricing.Ok:
		return response.Success(c, "Pricing updated", res.Client, nil)
	case pricing.Conflict:
		return response.Conflict(c, res.Reason, fiber.Map{
			"kind":          res.Kind.String(),
			"serverCosts":   res.ServerCosts,
			"serverVersion": res.ServerVersion,
		})
	case pricing.NotFound:
		return response.NotFound(c, res.Reason)
	default:
		return response.BadRequest(c, res.Reason)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

// ChangeStatus PATCH /api/v1/clients/:id/status
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return response.BadRequest(c, errBody)
	}
	client, err := h.Clients.ChangeStatus(c.UserContext(), c.Params("id"), req.Status, middleware.Actor(c))
	if err != nil {
		return clientError(c, err)
	}
	return response.Success(c, "Status updated", client, nil)
}

// Delete DELETE /api/v1/clients/:id: soft delete.
func (h *Handlers) Delete(c *fiber.Ctx) error {
	client, err := h.Clients.SoftDelete(c.UserContext(), c.Params("id"), middleware.Actor(c))
	if err != nil {
		return clientError(c, err)
	}
	return response.Success(c, "Client deleted", client, nil)
}

// Purge DELETE /api/v1/clients/:id/purge: removes the row for good.
func (h *Handlers) Purge(c *fiber.Ctx) error {
	if err := h.Clients.Purge(c.UserContext(), c.Params("id"), middleware.Actor(c)); err != nil {
		return clientError(c, err)
	}
	return response.Success(c, "Client purged", fiber.Map{"id": c.Params("id")}, nil)
}

func clientError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrClientNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, clientsvc.ErrNameRequired),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidAmount):
		return response.BadRequest(c, err.Error())
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("Client operation failed")
	return response.Internal(c)
}
