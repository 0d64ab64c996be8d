// Package recalc rebuilds the materialized summary block of every client from
// the payment log. Only one run may be in flight; the lock manager enforces it.
package recalc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clientbook-backend/internal/application/alerts"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/domain/finance"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SystemActor identifies runs that were not started by a person.
const SystemActor = "system"

// Store is the persistence the service reads from and writes to.
type Store interface {
	ReadClients(ctx context.Context) ([]domain.Client, error)
	ReadPayments(ctx context.Context) ([]domain.Payment, error)
	FindClient(ctx context.Context, id string) (*domain.Client, error)
	WriteDerivedFieldBatch(ctx context.Context, rows []domain.DerivedRow) (int, error)
	AppendLog(ctx context.Context, entry *domain.LogEntry) error
}

// Locker guards the batch. Acquire fails with a contention error while another
// run holds the lock.
type Locker interface {
	Acquire(ctx context.Context, actor string) error
	Release(ctx context.Context) error
}

// Recorder keeps the most recent Result for the health endpoint. Optional.
type Recorder interface {
	RecordRun(ctx context.Context, r Result) error
}

// Result is the outcome of one run.
type Result struct {
	Success        bool      `json:"success"`
	ClientsUpdated int       `json:"clientsUpdated"`
	Timestamp      time.Time `json:"timestamp"`
	// TimeTakenMs is wall time of the run in milliseconds.
	TimeTakenMs int64    `json:"timeTaken"`
	Actor       string   `json:"actor"`
	Errors      []string `json:"errors,omitempty"`
}

type Service struct {
	Store    Store
	Lock     Locker
	Recorder Recorder
	Alerts   alerts.Notifier
	Now      func() time.Time
}

func NewService(store Store, lock Locker) *Service {
	return &Service{Store: store, Lock: lock, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// RecalculateAll recomputes (totalValue, totalPaid, pending, profit) for every
// client and writes them as one batch. A contention error from the lock is
// returned as is; every other failure releases the lock and comes back as an
// unsuccessful Result together with the error.
func (s *Service) RecalculateAll(ctx context.Context, actor string) (Result, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = SystemActor
	}
	start := s.now()
	if err := s.Lock.Acquire(ctx, actor); err != nil {
		return Result{Success: false, Timestamp: start, Actor: actor, Errors: []string{err.Error()}}, err
	}
	defer func() {
		if err := s.Lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Str("actor", actor).Msg("Failed to release recalculation lock")
		}
	}()

	res, err := s.run(ctx, actor, start)
	res.TimeTakenMs = s.now().Sub(start).Milliseconds()
	if err != nil {
		res.Success = false
		res.ClientsUpdated = 0
		res.Errors = append([]string{err.Error()}, res.Errors...)
		log.Error().Err(err).Str("actor", actor).Msg("Recalculation failed")
		s.appendFailure(ctx, actor, err)
		s.alert(ctx, res)
	} else {
		log.Info().Str("actor", actor).Int("clients", res.ClientsUpdated).Int64("ms", res.TimeTakenMs).Msg("Recalculation complete")
	}
	s.record(ctx, res)
	return res, err
}

func (s *Service) run(ctx context.Context, actor string, start time.Time) (Result, error) {
	res := Result{Timestamp: start, Actor: actor}

	var clients []domain.Client
	var payments []domain.Payment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.Store.ReadClients(gctx)
		if err != nil {
			return fmt.Errorf("read clients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.Store.ReadPayments(gctx)
		if err != nil {
			return fmt.Errorf("read payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	rows := BuildRows(clients, payments)
	written, err := s.Store.WriteDerivedFieldBatch(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("write derived fields: %w", err)
	}
	res.Success = true
	res.ClientsUpdated = written

	entry := domain.NewLogEntry(s.now().UTC(), actor, domain.ActionRecalculation, map[string]interface{}{
		"clientsUpdated": written,
		"clientsRead":    len(clients),
		"paymentsRead":   len(payments),
	})
	// The batch is already committed; a lost audit row is reported, not rolled back.
	if err := s.Store.AppendLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("actor", actor).Msg("Failed to append recalculation log")
		res.Errors = append(res.Errors, "append log: "+err.Error())
	}
	return res, nil
}

// BuildRows derives the summary block for every client with an id. Clients
// without one are skipped.
func BuildRows(clients []domain.Client, payments []domain.Payment) []domain.DerivedRow {
	paid := finance.PaidByClient(payments)
	rows := make([]domain.DerivedRow, 0, len(clients))
	for _, c := range clients {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		rows = append(rows, domain.DerivedRow{
			ClientID:      c.ID,
			Version:       c.Version,
			DerivedFields: finance.Derive(c.CostInputs, paid[c.ID]),
		})
	}
	return rows
}

// RecalculateClient checks the client exists, then runs a full recalculation
// so the batch stays the only writer of the payment-owned columns.
func (s *Service) RecalculateClient(ctx context.Context, clientID, actor string) (Result, error) {
	if _, err := s.Store.FindClient(ctx, clientID); err != nil {
		return Result{Timestamp: s.now(), Actor: actor, Errors: []string{err.Error()}}, err
	}
	return s.RecalculateAll(ctx, actor)
}

func (s *Service) appendFailure(ctx context.Context, actor string, cause error) {
	entry := domain.NewLogEntry(s.now().UTC(), actor, domain.ActionRecalculationErr, map[string]string{"error": cause.Error()})
	if err := s.Store.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Msg("Failed to append recalculation failure log")
	}
}

func (s *Service) alert(ctx context.Context, res Result) {
	if s.Alerts == nil {
		return
	}
	d := alerts.Defect{
		Subject: "Recalculation failed",
		Fields: map[string]string{
			"actor":     res.Actor,
			"timestamp": res.Timestamp.UTC().Format(time.RFC3339),
		},
		Lines: res.Errors,
	}
	if err := s.Alerts.NotifyDefect(context.WithoutCancel(ctx), d); err != nil {
		log.Warn().Err(err).Msg("Failed to send recalculation alert")
	}
}

func (s *Service) record(ctx context.Context, res Result) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.RecordRun(context.WithoutCancel(ctx), res); err != nil {
		log.Warn().Err(err).Msg("Failed to record recalculation result")
	}
}
