// Package service exposes the pool's query operations. Every path that can
// report a domain as available re-verifies it through the resolver first;
// the pool alone is never treated as ground truth.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"domainscout/internal/availability"
	"domainscout/internal/pool"
	"domainscout/internal/pool/ranking"
)

const (
	// defaultSampleLimit bounds unqualified sample requests.
	defaultSampleLimit = 50

	// maxSampleLimit is the hard cap regardless of what the caller asks for.
	maxSampleLimit = 200

	// verifyMargin is how many extra candidates a ranked search verifies so
	// a few taken domains at the top do not starve the result.
	verifyMargin = 5

	// evictTimeout bounds each background eviction.
	evictTimeout = 5 * time.Second
)

// Verifier is the live-resolution dependency, satisfied by the resolver.
type Verifier interface {
	ResolveBatch(ctx context.Context, domains []string) []availability.Record
}

// VerifyResult partitions a verified search: Verified domains passed a live
// check in this call, Taken ones failed it and are being evicted.
type VerifyResult struct {
	Verified []string `json:"verified"`
	Taken    []string `json:"taken"`
}

// Service runs pool queries and re-verification.
type Service struct {
	store    pool.Store
	verifier Verifier
	logger   *slog.Logger

	// evictions tracks in-flight background deletes so tests and shutdown
	// can wait them out.
	evictions sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the pool service. Both the store and the verifier are
// required.
func New(store pool.Store, verifier Verifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("pool store is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	s := &Service{
		store:    store,
		verifier: verifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sample returns a random selection of pooled candidates. The result is
// unverified; callers that need "available right now" use SearchAndVerify.
func (s *Service) Sample(ctx context.Context, f pool.Filter) ([]pool.Candidate, error) {
	f.Limit = capLimit(f.Limit)
	return s.store.Sample(ctx, f)
}

// InstantRank orders pooled candidates matching the filter by relevance to
// the query. Ranking runs over the full deterministic listing, never a
// random sample, so an unchanged pool yields identical results call after
// call. No live verification happens; scores reflect the pool's last known
// state.
func (s *Service) InstantRank(ctx context.Context, query string, f pool.Filter, limit int) ([]ranking.Scored, error) {
	limit = capLimit(limit)
	f.Limit = 0

	candidates, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list pool: %w", err)
	}
	return ranking.Rank(query, candidates, limit), nil
}

// SearchAndVerify samples the pool, optionally ranks by query relevance, and
// live-verifies the selection before anything is reported available. Taken
// domains are evicted in the background; eviction failures are logged, not
// surfaced.
func (s *Service) SearchAndVerify(ctx context.Context, query string, f pool.Filter, limit int) (VerifyResult, error) {
	limit = capLimit(limit)

	// Over-fetch so ranking has material to choose from and so evictions
	// during verification still leave enough survivors.
	f.Limit = capLimit(limit * 2)
	candidates, err := s.store.Sample(ctx, f)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("sample pool: %w", err)
	}

	toVerify := candidates
	if query != "" {
		scored := ranking.Rank(query, candidates, limit+verifyMargin)
		toVerify = make([]pool.Candidate, len(scored))
		for i, sc := range scored {
			toVerify[i] = sc.Candidate
		}
	} else if len(toVerify) > limit {
		toVerify = toVerify[:limit]
	}

	domains := make([]string, len(toVerify))
	for i, c := range toVerify {
		domains[i] = c.Domain
	}
	records := s.verifier.ResolveBatch(ctx, domains)

	var result VerifyResult
	for _, rec := range records {
		switch {
		case rec.Available:
			if len(result.Verified) < limit {
				result.Verified = append(result.Verified, rec.Domain)
			}
		case rec.Confidence > availability.ConfidenceDenied:
			// Confirmed taken; a zero-confidence denial is merely
			// unknown and must not evict.
			result.Taken = append(result.Taken, rec.Domain)
			s.evictAsync(rec.Domain)
		}
	}
	return result, nil
}

// Wait blocks until all background evictions have finished.
func (s *Service) Wait() {
	s.evictions.Wait()
}

// evictAsync deletes a taken domain without holding up the caller. The
// request context is deliberately not inherited; eviction outlives it.
func (s *Service) evictAsync(domain string) {
	s.evictions.Add(1)
	go func() {
		defer s.evictions.Done()
		ctx, cancel := context.WithTimeout(context.Background(), evictTimeout)
		defer cancel()
		if err := s.store.Delete(ctx, domain); err != nil {
			s.logger.WarnContext(ctx, "pool eviction failed",
				"domain", domain, "error", err)
		} else {
			s.logger.InfoContext(ctx, "evicted taken domain from pool",
				"domain", domain)
		}
	}()
}

func capLimit(limit int) int {
	if limit <= 0 {
		return defaultSampleLimit
	}
	if limit > maxSampleLimit {
		return maxSampleLimit
	}
	return limit
}
