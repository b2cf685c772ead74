// Package maintenance keeps the candidate pool honest independent of query
// traffic: a scheduled sweep re-verifies random samples and evicts domains
// that have been registered since they were pooled.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"domainscout/internal/availability"
	"domainscout/internal/pool"
)

const (
	// defaultSampleSize is how many candidates per TLD one sweep checks.
	defaultSampleSize = 25

	// DefaultSchedule runs the sweep every six hours.
	DefaultSchedule = "0 */6 * * *"

	// sweepTimeout bounds one whole sweep across all TLDs.
	sweepTimeout = 30 * time.Minute
)

// Verifier is the live-resolution dependency, satisfied by the resolver.
type Verifier interface {
	ResolveBatch(ctx context.Context, domains []string) []availability.Record
}

// Result counts one sweep's outcomes. Unknown covers denials, which neither
// confirm nor evict.
type Result struct {
	Checked int
	Evicted int
	Unknown int
	Errors  int
}

// Sweeper re-verifies pooled candidates on a schedule.
type Sweeper struct {
	pool       pool.Store
	verifier   Verifier
	tlds       []string
	sampleSize int
	logger     *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = logger }
}

// WithSampleSize overrides how many candidates per TLD a sweep verifies.
func WithSampleSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.sampleSize = n
		}
	}
}

// NewSweeper constructs a Sweeper over the given TLDs.
func NewSweeper(poolStore pool.Store, verifier Verifier, tlds []string, opts ...Option) (*Sweeper, error) {
	if poolStore == nil {
		return nil, fmt.Errorf("pool store is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if len(tlds) == 0 {
		return nil, fmt.Errorf("at least one tld is required")
	}
	s := &Sweeper{
		pool:       poolStore,
		verifier:   verifier,
		tlds:       tlds,
		sampleSize: defaultSampleSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sweep runs one verification pass over every TLD and returns the combined
// counters. Store failures are counted, logged and skipped; the sweep always
// finishes.
func (s *Sweeper) Sweep(ctx context.Context) Result {
	var result Result
	for _, tld := range s.tlds {
		candidates, err := s.pool.Sample(ctx, pool.Filter{TLD: tld, Limit: s.sampleSize})
		if err != nil {
			result.Errors++
			s.logger.WarnContext(ctx, "sweep sample failed", "tld", tld, "error", err)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		domains := make([]string, len(candidates))
		for i, c := range candidates {
			domains[i] = c.Domain
		}

		for _, rec := range s.verifier.ResolveBatch(ctx, domains) {
			result.Checked++
			switch {
			case rec.Available:
				// Still available, nothing to do.
			case rec.Confidence > availability.ConfidenceDenied:
				if err := s.pool.Delete(ctx, rec.Domain); err != nil {
					result.Errors++
					s.logger.WarnContext(ctx, "sweep eviction failed",
						"domain", rec.Domain, "error", err)
					continue
				}
				result.Evicted++
			default:
				result.Unknown++
			}
		}
	}
	return result
}

// Start schedules the sweep with a standard 5-field cron expression and
// returns the running scheduler; the caller stops it on shutdown.
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		result := s.Sweep(ctx)
		s.logger.InfoContext(ctx, "pool sweep complete",
			"tlds", s.tlds,
			"checked", result.Checked,
			"evicted", result.Evicted,
			"unknown", result.Unknown,
			"errors", result.Errors)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule pool sweep %q: %w", schedule, err)
	}
	c.Start()
	s.logger.Info("pool sweep scheduled", "schedule", schedule, "tlds", s.tlds)
	return c, nil
}
