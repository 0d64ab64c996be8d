// Package overview is the read model: a full fetch of clients, payments and
// ledger entries, derived and validated per client, plus global and team
// aggregates. Validation never blocks a read; issues go to the log and
// defects to the alert notifier.
package overview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clientbook-backend/internal/application/alerts"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/domain/finance"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	ReadClients(ctx context.Context) ([]domain.Client, error)
	ReadPayments(ctx context.Context) ([]domain.Payment, error)
	ReadLedgerEntries(ctx context.Context) ([]domain.LedgerEntry, error)
	FindClient(ctx context.Context, id string) (*domain.Client, error)
}

// ClientView is one client with its live snapshot. Stale reports whether the
// materialized summary block disagrees with the snapshot, i.e. a
// recalculation is due.
type ClientView struct {
	Client     domain.Client      `json:"client"`
	Finance    finance.Snapshot   `json:"finance"`
	Validation finance.Validation `json:"validation"`
	Stale      bool               `json:"stale"`
}

type Overview struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Clients     []ClientView            `json:"clients"`
	Global      finance.GlobalSnapshot  `json:"global"`
	Team        finance.TeamTotals      `json:"team"`
	Members     []finance.MemberBalance `json:"members"`
	ErrorCount  int                     `json:"errorCount"`
	WarnCount   int                     `json:"warningCount"`
}

type Service struct {
	Store  Store
	Alerts alerts.Notifier
	Now    func() time.Time

	mu      sync.Mutex
	alerted map[string]struct{}
	sends   sync.WaitGroup
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

type logs struct {
	clients  []domain.Client
	payments []domain.Payment
	entries  []domain.LedgerEntry
}

func (s *Service) fetch(ctx context.Context, withClients bool) (logs, error) {
	var l logs
	g, gctx := errgroup.WithContext(ctx)
	if withClients {
		g.Go(func() (err error) {
			l.clients, err = s.Store.ReadClients(gctx)
			return err
		})
	}
	g.Go(func() (err error) {
		l.payments, err = s.Store.ReadPayments(gctx)
		return err
	})
	g.Go(func() (err error) {
		l.entries, err = s.Store.ReadLedgerEntries(gctx)
		return err
	})
	return l, g.Wait()
}

// Overview builds the full read model. Deleted clients are left out of the
// client list and the global totals; mode and team aggregates cover the whole log.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	l, err := s.fetch(ctx, true)
	if err != nil {
		return nil, err
	}
	var visible []domain.Client
	for _, c := range l.clients {
		if c.Status != domain.ClientDeleted {
			visible = append(visible, c)
		}
	}

	out := &Overview{
		GeneratedAt: s.now(),
		Clients:     make([]ClientView, 0, len(visible)),
		Global:      finance.DeriveGlobalFinance(visible, l.payments),
		Team:        finance.TeamAggregate(l.entries),
		Members:     finance.MemberBalances(l.entries),
	}
	var defects []string
	for _, c := range visible {
		v := view(c, l.payments, l.entries)
		out.Clients = append(out.Clients, v)
		out.WarnCount += len(v.Validation.Warnings())
		for _, issue := range v.Validation.Errors() {
			out.ErrorCount++
			defects = append(defects, fmt.Sprintf("%s (%s): %s", c.Name, c.ID, issue.Message))
		}
		report(v)
	}
	s.alert(ctx, defects, true)
	return out, nil
}

// Client builds the view of one client, deleted or not.
func (s *Service) Client(ctx context.Context, id string) (*ClientView, error) {
	c, err := s.Store.FindClient(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := s.fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	v := view(*c, l.payments, l.entries)
	report(v)
	if errs := v.Validation.Errors(); len(errs) > 0 {
		lines := make([]string, 0, len(errs))
		for _, issue := range errs {
			lines = append(lines, fmt.Sprintf("%s (%s): %s", c.Name, c.ID, issue.Message))
		}
		s.alert(ctx, lines, false)
	}
	return &v, nil
}

func view(c domain.Client, payments []domain.Payment, entries []domain.LedgerEntry) ClientView {
	snap := finance.DeriveFinance(c, payments, entries)
	return ClientView{
		Client:     c,
		Finance:    snap,
		Validation: finance.Validate(snap),
		Stale: !c.TotalValue.Equal(snap.TotalValue) ||
			!c.TotalPaid.Equal(snap.TotalPaid) ||
			!c.Pending.Equal(snap.Pending) ||
			!c.Profit.Equal(snap.Profit),
	}
}

func report(v ClientView) {
	for _, issue := range v.Validation.Issues {
		ev := log.Warn()
		if issue.Severity == finance.SeverityError {
			ev = log.Error()
		}
		ev.Str("client_id", v.Client.ID).Str("code", issue.Code).Str("field", issue.Field).Msg(issue.Message)
	}
}

// alert mails the defect lines not mailed before. A full read (the overview)
// also forgets lines that are gone, so a defect that comes back alerts again.
// Delivery runs off the request path.
func (s *Service) alert(ctx context.Context, lines []string, full bool) {
	if s.Alerts == nil {
		return
	}
	s.mu.Lock()
	if s.alerted == nil {
		s.alerted = make(map[string]struct{})
	}
	if full {
		current := make(map[string]struct{}, len(lines))
		for _, l := range lines {
			current[l] = struct{}{}
		}
		for l := range s.alerted {
			if _, ok := current[l]; !ok {
				delete(s.alerted, l)
			}
		}
	}
	var fresh []string
	for _, l := range lines {
		if _, ok := s.alerted[l]; !ok {
			s.alerted[l] = struct{}{}
			fresh = append(fresh, l)
		}
	}
	s.mu.Unlock()
	if len(fresh) == 0 {
		return
	}

	d := alerts.Defect{
		Subject: "Finance consistency errors",
		Fields:  map[string]string{"count": fmt.Sprint(len(fresh))},
		Lines:   fresh,
	}
	ctx = context.WithoutCancel(ctx)
	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		if err := s.Alerts.NotifyDefect(ctx, d); err != nil {
			log.Warn().Err(err).Int("count", len(fresh)).Msg("Failed to send consistency alert")
			s.forget(fresh)
		}
	}()
}

// forget lets lines that failed to send alert again on the next read.
func (s *Service) forget(lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		delete(s.alerted, l)
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}
