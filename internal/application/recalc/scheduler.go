package recalc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clientbook-backend/internal/application/locking"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// runTimeout bounds a scheduled run; it matches the lock stale timeout so a
// wedged run is cut off before another process may override its lock.
const runTimeout = locking.StaleAfter

// StartScheduler runs RecalculateAll on expr (standard 5-field cron). An empty
// expr disables scheduling and returns a nil cron.
func StartScheduler(svc *Service, expr string, loc *time.Location) (*cron.Cron, error) {
	if expr == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(expr, func() { runScheduled(svc) })
	if err != nil {
		return nil, fmt.Errorf("unable to schedule recalculation: %w", err)
	}
	c.Start()
	log.Info().Str("schedule", expr).Msg("Recalculation scheduler started")
	return c, nil
}

func runScheduled(svc *Service) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, err := svc.RecalculateAll(ctx, SystemActor)
	if errors.Is(err, locking.ErrLockHeld) {
		// Someone else is already recalculating; the next tick will try again.
		log.Warn().Err(err).Msg("Scheduled recalculation skipped")
	}
}
