// Package clients handles the client lifecycle: creation, status changes
// (soft delete is a status) and hard delete. Every mutation is audit logged.
package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/domain/finance"
	"clientbook-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrNameRequired = errors.New("client name is required")

type Store interface {
	CreateClient(ctx context.Context, c *domain.Client) error
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	UpdateStatus(ctx context.Context, clientID string, status domain.ClientStatus, actor string, at time.Time) error
	HardDelete(ctx context.Context, clientID string) error
	AppendLog(ctx context.Context, entry *domain.LogEntry) error
}

type CreateInput struct {
	Name   string
	Status string
	Costs  domain.CostInputs
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
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Create stores a new client at version 1 with its summary block derived
// from the cost inputs and no payments.
func (s *Service) Create(ctx context.Context, in CreateInput, actor string) (*domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if !validation.IsValidName(name) {
		return nil, ErrNameRequired
	}
	if in.Costs.HasNegative() {
		return nil, domain.ErrInvalidAmount
	}
	status := domain.ClientActive
	if strings.TrimSpace(in.Status) != "" {
		st, ok := domain.ParseClientStatus(in.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		status = st
	}
	at := s.now()
	c := &domain.Client{
		Name:           name,
		Status:         status,
		CostInputs:     in.Costs,
		DerivedFields:  finance.Derive(in.Costs, decimal.Zero),
		Version:        1,
		LastModifiedAt: at,
		LastModifiedBy: actor,
	}
	if err := s.Store.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	s.audit(ctx, at, actor, domain.ActionClientCreated, map[string]interface{}{
		"clientId":   c.ID,
		"name":       c.Name,
		"status":     c.Status,
		"totalValue": c.TotalValue,
	})
	return c, nil
}

// ChangeStatus moves a client to status. Deleted is the soft delete.
func (s *Service) ChangeStatus(ctx context.Context, clientID, status, actor string) (*domain.Client, error) {
	st, ok := domain.ParseClientStatus(status)
	if !ok {
		return nil, domain.ErrInvalidStatus
	}
	before, err := s.Store.FindClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if err := s.Store.UpdateStatus(ctx, before.ID, st, actor, at); err != nil {
		return nil, err
	}
	after, err := s.Store.FindClient(ctx, before.ID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, at, actor, domain.ActionStatusChanged, map[string]interface{}{
		"clientId": before.ID,
		"from":     before.Status,
		"to":       after.Status,
		"before":   before.DerivedFields.Totals(),
		"after":    after.DerivedFields.Totals(),
	})
	return after, nil
}

func (s *Service) SoftDelete(ctx context.Context, clientID, actor string) (*domain.Client, error) {
	return s.ChangeStatus(ctx, clientID, string(domain.ClientDeleted), actor)
}

// Purge removes the client row. Its payments and ledger entries stay in the logs.
func (s *Service) Purge(ctx context.Context, clientID, actor string) error {
	c, err := s.Store.FindClient(ctx, clientID)
	if err != nil {
		return err
	}
	if err := s.Store.HardDelete(ctx, c.ID); err != nil {
		return err
	}
	s.audit(ctx, s.now(), actor, domain.ActionClientPurged, map[string]interface{}{
		"clientId":   c.ID,
		"name":       c.Name,
		"status":     c.Status,
		"costs":      c.CostInputs,
		"totalValue": c.TotalValue,
		"totalPaid":  c.TotalPaid,
	})
	log.Warn().Str("client_id", c.ID).Str("actor", actor).Msg("Client purged")
	return nil
}

func (s *Service) audit(ctx context.Context, at time.Time, actor, action string, details interface{}) {
	if err := s.Store.AppendLog(ctx, domain.NewLogEntry(at, actor, action, details)); err != nil {
		log.Error().Err(err).Str("action", action).Str("actor", actor).Msg("Failed to append audit log")
	}
}
