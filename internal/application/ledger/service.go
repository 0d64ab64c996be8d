// Package ledger records team cash ledger entries.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientbook-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrMemberRequired = errors.New("member id is required")
	ErrInvalidType    = errors.New("ledger type must be given, spent or investment")
)

type Store interface {
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	AppendLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error
	AppendLog(ctx context.Context, entry *domain.LogEntry) error
}

type Input struct {
	MemberID string
	ClientID string
	Date     time.Time
	Amount   decimal.Decimal
	Type     string
	Reason   string
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

// Record appends an entry. A client id, when given, must name an existing client.
func (s *Service) Record(ctx context.Context, in Input, actor string) (*domain.LedgerEntry, error) {
	member := strings.TrimSpace(in.MemberID)
	if member == "" {
		return nil, ErrMemberRequired
	}
	typ, ok := domain.ParseLedgerType(in.Type)
	if !ok {
		return nil, ErrInvalidType
	}
	amount := in.Amount.Abs()
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	var clientID *string
	if id := strings.TrimSpace(in.ClientID); id != "" {
		c, err := s.Store.FindClient(ctx, id)
		if err != nil {
			return nil, err
		}
		clientID = &c.ID
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	at := now().UTC()
	date := in.Date
	if date.IsZero() {
		date = at
	}
	e := &domain.LedgerEntry{
		MemberID:   member,
		ClientID:   clientID,
		Date:       date,
		Amount:     amount,
		Type:       typ,
		Reason:     strings.TrimSpace(in.Reason),
		RecordedBy: actor,
	}
	if err := s.Store.AppendLedgerEntry(ctx, e); err != nil {
		return nil, err
	}
	entry := domain.NewLogEntry(at, actor, domain.ActionLedgerRecorded, map[string]interface{}{
		"entryId":  e.ID,
		"memberId": e.MemberID,
		"clientId": e.ClientID,
		"amount":   e.Amount,
		"type":     e.Type,
	})
	if err := s.Store.AppendLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("member_id", member).Msg("Failed to append ledger log")
	}
	return e, nil
}
