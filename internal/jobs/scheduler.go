// Package jobs runs the periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/cop-side-events/internal/clock"
)

// Cron specs, seconds first.
const (
	OverdueSpec = "0 */15 * * * *"
	PurgeSpec   = "0 0 3 * * *"
)

// jobTimeout bounds one run of any job.
const jobTimeout = time.Minute

// OverdueMarker flips unpaid invoices of started events to Overdue.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// TokenPurger deletes spent and expired tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron runner and the job dependencies.
type Scheduler struct {
	cron     *cron.Cron
	invoices OverdueMarker
	tokens   TokenPurger
	clock    clock.Clock
}

// New registers the jobs without starting them.
func New(invoices OverdueMarker, tokens TokenPurger, c clock.Clock) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		invoices: invoices,
		tokens:   tokens,
		clock:    c,
	}
	if _, err := s.cron.AddFunc(OverdueSpec, func() { s.run("mark_overdue", s.MarkOverdue) }); err != nil {
		return nil, fmt.Errorf("schedule mark_overdue: %w", err)
	}
	if _, err := s.cron.AddFunc(PurgeSpec, func() { s.run("purge_tokens", s.PurgeTokens) }); err != nil {
		return nil, fmt.Errorf("schedule purge_tokens: %w", err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("cron scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for running ones up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// MarkOverdue runs the invoice job once.
func (s *Scheduler) MarkOverdue(ctx context.Context) (int64, error) {
	return s.invoices.MarkOverdue(ctx, s.clock.Now())
}

// PurgeTokens runs the token cleanup once.
func (s *Scheduler) PurgeTokens(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, s.clock.Now())
}

func (s *Scheduler) run(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	start := time.Now()
	n, err := job(ctx)
	if err != nil {
		slog.Error("cron job failed", "job", name, "err", err)
		return
	}
	slog.Info("cron job done", "job", name, "rows", n, "took", time.Since(start))
}
