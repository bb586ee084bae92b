// Package verifier re-checks the audit chain on a cron schedule.
package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit"
)

// Chain is satisfied by *audit.Log.
type Chain interface {
	Verify(ctx context.Context) (*audit.VerifyReport, error)
}

// Scheduler runs chain verification on a standard five-field cron schedule.
type Scheduler struct {
	chain    Chain
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
	last    *audit.VerifyReport
}

func New(chain Chain, schedule string, logger *slog.Logger) (*Scheduler, error) {
	if chain == nil {
		return nil, fmt.Errorf("audit chain is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid verify schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		chain:    chain,
		schedule: schedule,
		logger:   logger.With("component", "audit.verifier"),
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Start schedules verification and stops it when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule verification: %w", err)
	}
	s.cron.Start()
	s.running = true
	s.logger.InfoContext(ctx, "audit verifier started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce verifies the chain immediately and returns the report, or nil if
// verification could not run.
func (s *Scheduler) RunOnce(ctx context.Context) *audit.VerifyReport {
	start := time.Now()
	report, err := s.chain.Verify(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit verification failed to run", "error", err)
		return nil
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "audit verification completed",
		"valid", report.Valid,
		"records", report.Records,
		"duration", time.Since(start),
	)
	return report
}

// Last returns the most recent report, if any.
func (s *Scheduler) Last() *audit.VerifyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Stop waits for a running verification to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// the job takes mu to publish its report
	<-s.cron.Stop().Done()
	s.logger.Info("audit verifier stopped")
}
