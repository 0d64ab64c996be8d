// Package pricing is the optimistic edit path for a client's cost inputs.
package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/domain/finance"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Store interface {
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	WriteClientCostBlock(ctx context.Context, clientID string, expectedVersion int, w domain.CostBlockWrite) (bool, error)
	AppendLog(ctx context.Context, entry *domain.LogEntry) error
}

// Kind tags the outcome of UpdatePricing. Callers switch on it.
type Kind int

const (
	Ok Kind = iota
	Conflict
	NotFound
	Invalid
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Result of an edit. On Ok, Client is the stored row after the write. On
// Conflict, ServerCosts and ServerVersion are what the store holds now.
type Result struct {
	Kind          Kind
	Client        *domain.Client
	ServerCosts   domain.CostInputs
	ServerVersion int
	Reason        string
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// UpdatePricing stores costs iff the client is still at lastKnownVersion.
// Totals are derived here from costs; the caller's totals are never used.
// The error return is reserved for store failures.
func (s *Service) UpdatePricing(ctx context.Context, clientID string, costs domain.CostInputs, lastKnownVersion int, editor string) (Result, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		return Result{Kind: Invalid, Reason: "editor is required"}, nil
	}
	if costs.HasNegative() {
		return Result{Kind: Invalid, Reason: "cost inputs must not be negative"}, nil
	}

	current, err := s.Store.FindClient(ctx, clientID)
	if errors.Is(err, domain.ErrClientNotFound) {
		return Result{Kind: NotFound, Reason: err.Error()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if current.Version != lastKnownVersion {
		return conflict(current), nil
	}

	at := s.now().UTC()
	written, err := s.Store.WriteClientCostBlock(ctx, current.ID, lastKnownVersion, domain.CostBlockWrite{
		Costs:      costs,
		TotalValue: finance.TotalValue(costs),
		Profit:     finance.Profit(costs),
		Actor:      editor,
		At:         at,
	})
	if err != nil {
		return Result{}, err
	}

	after, err := s.Store.FindClient(ctx, current.ID)
	if errors.Is(err, domain.ErrClientNotFound) {
		return Result{Kind: NotFound, Reason: err.Error()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if !written {
		// Another editor committed between our read and write.
		return conflict(after), nil
	}

	entry := domain.NewLogEntry(at, editor, domain.ActionPricingUpdated, map[string]interface{}{
		"clientId": current.ID,
		"fields":   ChangedFields(current.CostInputs, costs),
		"version":  after.Version,
		"before":   current.DerivedFields.Totals(),
		"after":    after.DerivedFields.Totals(),
	})
	if err := s.Store.AppendLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("client_id", current.ID).Str("actor", editor).Msg("Failed to append pricing log")
	}
	log.Info().Str("client_id", current.ID).Str("actor", editor).Int("version", after.Version).Msg("Pricing updated")
	return Result{Kind: Ok, Client: after, ServerCosts: after.CostInputs, ServerVersion: after.Version}, nil
}

// CostPatch carries the cost inputs a caller sent. A nil field keeps the
// stored value.
type CostPatch struct {
	ServiceCost            *decimal.Decimal
	DomainCharged          *decimal.Decimal
	ActualDomainCost       *decimal.Decimal
	ExtraFeatures          *decimal.Decimal
	ExtraProductionCharges *decimal.Decimal
}

func (p CostPatch) Empty() bool {
	return p.ServiceCost == nil && p.DomainCharged == nil && p.ActualDomainCost == nil &&
		p.ExtraFeatures == nil && p.ExtraProductionCharges == nil
}

// Apply overlays the patch on base.
func (p CostPatch) Apply(base domain.CostInputs) domain.CostInputs {
	pick := func(v *decimal.Decimal, keep decimal.Decimal) decimal.Decimal {
		if v == nil {
			return keep
		}
		return *v
	}
	return domain.CostInputs{
		ServiceCost:            pick(p.ServiceCost, base.ServiceCost),
		DomainCharged:          pick(p.DomainCharged, base.DomainCharged),
		ActualDomainCost:       pick(p.ActualDomainCost, base.ActualDomainCost),
		ExtraFeatures:          pick(p.ExtraFeatures, base.ExtraFeatures),
		ExtraProductionCharges: pick(p.ExtraProductionCharges, base.ExtraProductionCharges),
	}
}

// PatchPricing fills the fields missing from patch with the stored inputs and
// runs UpdatePricing. The merge base is only written when the stored version
// still equals lastKnownVersion, so it is the row the caller last read.
func (s *Service) PatchPricing(ctx context.Context, clientID string, patch CostPatch, lastKnownVersion int, editor string) (Result, error) {
	if patch.Empty() {
		return Result{Kind: Invalid, Reason: "at least one cost input is required"}, nil
	}
	current, err := s.Store.FindClient(ctx, clientID)
	if errors.Is(err, domain.ErrClientNotFound) {
		return Result{Kind: NotFound, Reason: err.Error()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if current.Version != lastKnownVersion {
		return conflict(current), nil
	}
	return s.UpdatePricing(ctx, current.ID, patch.Apply(current.CostInputs), lastKnownVersion, editor)
}

func conflict(c *domain.Client) Result {
	reason := "client was modified since it was read"
	if c.LastModifiedBy != "" {
		reason = "client was modified by " + c.LastModifiedBy
	}
	return Result{
		Kind:          Conflict,
		Client:        c,
		ServerCosts:   c.CostInputs,
		ServerVersion: c.Version,
		Reason:        reason,
	}
}

// ChangedFields names the cost inputs that differ between before and after.
func ChangedFields(before, after domain.CostInputs) []string {
	var out []string
	check := func(name string, a, b decimal.Decimal) {
		if !a.Equal(b) {
			out = append(out, name)
		}
	}
	check("serviceCost", before.ServiceCost, after.ServiceCost)
	check("domainCharged", before.DomainCharged, after.DomainCharged)
	check("actualDomainCost", before.ActualDomainCost, after.ActualDomainCost)
	check("extraFeatures", before.ExtraFeatures, after.ExtraFeatures)
	check("extraProductionCharges", before.ExtraProductionCharges, after.ExtraProductionCharges)
	return out
}
