// Package resolver orchestrates availability resolution: freshness cache,
// then oracles in trust order, then conservative denial. Resolution always
// returns a value; upstream failures are folded into fall-through, never
// surfaced to the caller.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"domainscout/internal/availability"
	"domainscout/internal/availability/cache"
	"domainscout/internal/availability/metrics"
	"domainscout/internal/availability/oracle"
)

const (
	// defaultFanout caps concurrent per-domain oracle calls in a batch.
	defaultFanout = 5

	// defaultWavePause separates successive fan-out waves to protect
	// shared upstream rate limits.
	defaultWavePause = 200 * time.Millisecond

	// bulkThreshold is the minimum number of cache misses before the bulk
	// oracle is worth a call.
	bulkThreshold = 5
)

// Resolver resolves domain availability through the trust chain.
type Resolver struct {
	cache     cache.Store
	primary   oracle.Oracle
	fallback  oracle.Oracle
	bulk      oracle.BatchOracle
	metrics   *metrics.Metrics
	logger    *slog.Logger
	clock     func() time.Time
	fanout    int
	wavePause time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPrimary installs the authoritative oracle. Without it, resolution
// starts at the fallback.
func WithPrimary(o oracle.Oracle) Option {
	return func(r *Resolver) { r.primary = o }
}

// WithBulk installs the batch registrar oracle for large miss sets.
func WithBulk(o oracle.BatchOracle) Option {
	return func(r *Resolver) { r.bulk = o }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithWavePause overrides the inter-wave delay; tests set it to zero.
func WithWavePause(d time.Duration) Option {
	return func(r *Resolver) { r.wavePause = d }
}

// New constructs a Resolver. The cache and the fallback oracle are the
// minimum viable chain; primary and bulk are optional upgrades.
func New(cacheStore cache.Store, fallback oracle.Oracle, opts ...Option) (*Resolver, error) {
	if cacheStore == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback oracle is required")
	}
	r := &Resolver{
		cache:     cacheStore,
		fallback:  fallback,
		logger:    slog.Default(),
		clock:     time.Now,
		fanout:    defaultFanout,
		wavePause: defaultWavePause,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve determines availability for one domain. It never returns an
// error: when no source answers, the result is a conservative denial.
func (r *Resolver) Resolve(ctx context.Context, domain string) availability.Record {
	start := time.Now()
	defer func() {
		r.metrics.ObserveResolveDuration(time.Since(start).Seconds())
	}()

	if rec, ok := r.cacheLookup(ctx, domain); ok {
		r.metrics.RecordResolution(string(availability.SourceCache))
		return rec.AsCacheHit().Sanitize()
	}

	if r.primary != nil {
		rec, err := r.primary.Check(ctx, domain)
		if err == nil {
			r.cacheRecord(ctx, rec)
			r.metrics.RecordResolution(string(availability.SourcePrimary))
			return rec.Sanitize()
		}
		r.metrics.RecordFallthrough()
		r.logger.WarnContext(ctx, "primary oracle failed, falling through",
			"domain", domain, "error", err)
	}

	rec, err := r.fallback.Check(ctx, domain)
	if err == nil {
		r.cacheRecord(ctx, rec)
		r.metrics.RecordResolution(string(availability.SourceFallback))
		return rec.Sanitize()
	}
	r.metrics.RecordFallthrough()
	r.logger.WarnContext(ctx, "fallback oracle failed, denying conservatively",
		"domain", domain, "error", err)

	r.metrics.RecordDenial()
	return availability.Denial(domain, r.clock())
}

// ResolveBatch resolves several domains, preserving input order. Cache
// misses of five or more are routed through the bulk oracle when one is
// configured; otherwise misses resolve with a bounded fan-out.
func (r *Resolver) ResolveBatch(ctx context.Context, domains []string) []availability.Record {
	results := make([]availability.Record, len(domains))
	var missIdx []int
	for i, domain := range domains {
		if rec, ok := r.cacheLookup(ctx, domain); ok {
			r.metrics.RecordResolution(string(availability.SourceCache))
			results[i] = rec.AsCacheHit().Sanitize()
			continue
		}
		missIdx = append(missIdx, i)
	}
	if len(missIdx) == 0 {
		return results
	}

	if r.bulk != nil && len(missIdx) >= bulkThreshold {
		if r.resolveBulk(ctx, domains, missIdx, results) {
			return results
		}
		// The bulk call failed entirely; fall back to per-domain
		// resolution for the misses.
		r.metrics.RecordFallthrough()
	}

	r.resolveWaves(ctx, domains, missIdx, results)
	return results
}

// resolveBulk checks the missed domains through the bulk oracle, filling
// results in place. Returns false when the bulk call itself failed and the
// misses remain unresolved.
func (r *Resolver) resolveBulk(ctx context.Context, domains []string, missIdx []int, results []availability.Record) bool {
	missed := make([]string, len(missIdx))
	for i, idx := range missIdx {
		missed[i] = domains[idx]
	}

	recs, err := r.bulk.CheckBatch(ctx, missed)
	if err != nil {
		r.logger.WarnContext(ctx, "bulk oracle failed, resolving per domain",
			"misses", len(missed), "error", err)
		return false
	}
	for i, idx := range missIdx {
		rec := recs[i]
		r.cacheRecord(ctx, rec)
		r.metrics.RecordResolution(string(availability.SourceBulk))
		results[idx] = rec.Sanitize()
	}
	return true
}

// resolveWaves resolves misses in waves of at most fanout concurrent
// resolutions, pausing between waves.
func (r *Resolver) resolveWaves(ctx context.Context, domains []string, missIdx []int, results []availability.Record) {
	for start := 0; start < len(missIdx); start += r.fanout {
		end := min(start+r.fanout, len(missIdx))

		g, waveCtx := errgroup.WithContext(ctx)
		for _, idx := range missIdx[start:end] {
			idx := idx
			g.Go(func() error {
				results[idx] = r.Resolve(waveCtx, domains[idx])
				return nil
			})
		}
		_ = g.Wait() // Resolve never errors.

		if end < len(missIdx) && r.wavePause > 0 {
			select {
			case <-ctx.Done():
				// Remaining misses become denials; resolution never
				// surfaces an error.
				for _, idx := range missIdx[end:] {
					results[idx] = availability.Denial(domains[idx], r.clock())
					r.metrics.RecordDenial()
				}
				return
			case <-time.After(r.wavePause):
			}
		}
	}
}

func (r *Resolver) cacheLookup(ctx context.Context, domain string) (availability.Record, bool) {
	rec, ok, err := r.cache.Get(ctx, domain)
	if err != nil {
		// A failing cache read is just a miss; the chain continues.
		r.logger.WarnContext(ctx, "cache read failed", "domain", domain, "error", err)
		return availability.Record{}, false
	}
	return rec, ok
}

// cacheRecord persists an oracle answer best-effort. Zero-confidence
// records are never written so a failed resolution cannot poison the cache
// for other callers.
func (r *Resolver) cacheRecord(ctx context.Context, rec availability.Record) {
	if !rec.Cacheable() {
		return
	}
	if err := r.cache.Set(ctx, rec.Domain, rec, cache.TTLFor(rec)); err != nil {
		r.logger.WarnContext(ctx, "cache write failed", "domain", rec.Domain, "error", err)
	}
}
