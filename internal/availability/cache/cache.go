// Package cache is the freshness cache: last-known availability records
// keyed by domain, expiring sooner for lower-trust sources. Only the
// resolver writes; readers treat entries as immutable.
package cache

import (
	"context"
	"time"

	"domainscout/internal/availability"
)

// TTLs reflect trust: fallback-sourced records expire at half the primary
// TTL.
const (
	PrimaryTTL  = 24 * time.Hour
	FallbackTTL = 12 * time.Hour
)

// Store persists availability records with an expiry.
type Store interface {
	// Get returns the cached record for the domain. The bool reports
	// whether a non-expired entry existed.
	Get(ctx context.Context, domain string) (availability.Record, bool, error)

	// Set stores the record with the given TTL, overwriting any previous
	// entry for the domain.
	Set(ctx context.Context, domain string, rec availability.Record, ttl time.Duration) error
}

// TTLFor returns the expiry for a record based on its source trust.
func TTLFor(rec availability.Record) time.Duration {
	switch rec.Source {
	case availability.SourceFallback:
		return FallbackTTL
	default:
		return PrimaryTTL
	}
}
