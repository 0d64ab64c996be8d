// Package payments records client payments. Each payment is followed by a
// best-effort recalculation so the summary block catches up.
package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInvalidMode = errors.New("payment mode must be Cash, Online or Bank Transfer")

type Store interface {
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	AppendPayment(ctx context.Context, p *domain.Payment) error
	AppendLog(ctx context.Context, entry *domain.LogEntry) error
}

// Recalculator is satisfied by *recalc.Service.
type Recalculator interface {
	RecalculateAll(ctx context.Context, actor string) (recalc.Result, error)
}

type Input struct {
	ClientID string
	Date     time.Time
	Amount   decimal.Decimal
	Type     string
	Mode     string
	Note     string
}

type Recorded struct {
	Payment *domain.Payment `json:"payment"`
	// Recalculation is nil when the follow-up run could not start.
	Recalculation *recalc.Result `json:"recalculation,omitempty"`
}

type Service struct {
	Store  Store
	Recalc Recalculator
	Now    func() time.Time
}

func NewService(store Store, rc Recalculator) *Service {
	return &Service{Store: store, Recalc: rc, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Record appends a payment. The amount is stored as its magnitude; the sign
// comes from the type. Unknown types are kept and count as credits.
func (s *Service) Record(ctx context.Context, in Input, actor string) (*Recorded, error) {
	amount := in.Amount.Abs()
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	typ := domain.ParsePaymentType(in.Type)
	if typ == "" {
		typ = domain.PaymentCredit
	}
	var mode domain.PaymentMode
	if strings.TrimSpace(in.Mode) != "" {
		m, ok := domain.ParsePaymentMode(in.Mode)
		if !ok {
			return nil, ErrInvalidMode
		}
		mode = m
	}
	c, err := s.Store.FindClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	date := in.Date
	if date.IsZero() {
		date = at
	}
	p := &domain.Payment{
		ClientID:   c.ID,
		Date:       date,
		Amount:     amount,
		Type:       typ,
		Mode:       mode,
		RecordedBy: actor,
		Note:       strings.TrimSpace(in.Note),
	}
	if err := s.Store.AppendPayment(ctx, p); err != nil {
		return nil, err
	}
	entry := domain.NewLogEntry(at, actor, domain.ActionPaymentRecorded, map[string]interface{}{
		"paymentId": p.ID,
		"clientId":  c.ID,
		"amount":    p.Amount,
		"type":      p.Type,
		"mode":      p.Mode,
	})
	if err := s.Store.AppendLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("client_id", c.ID).Msg("Failed to append payment log")
	}

	out := &Recorded{Payment: p}
	if s.Recalc == nil {
		return out, nil
	}
	res, err := s.Recalc.RecalculateAll(ctx, actor)
	switch {
	case errors.Is(err, locking.ErrLockHeld):
		// The running batch or the next one will pick this payment up.
		log.Warn().Err(err).Str("client_id", c.ID).Msg("Recalculation after payment skipped")
	case err != nil:
		log.Error().Err(err).Str("client_id", c.ID).Msg("Recalculation after payment failed")
		out.Recalculation = &res
	default:
		out.Recalculation = &res
	}
	return out, nil
}
