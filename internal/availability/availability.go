// Package availability defines the shared vocabulary of availability
// outcomes: the record every oracle and the resolver speak in, and the
// confidence ordering that gates what may be reported as available.
package availability

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which component produced an availability record.
type Source string

const (
	SourceCache    Source = "cache"
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceBulk     Source = "bulk"
)

// Confidence levels form a fixed trust order. Every other component consults
// these constants; they are never re-derived elsewhere.
const (
	// ConfidencePrimary is the trust of the authoritative status API.
	ConfidencePrimary = 0.99

	// ConfidenceBulk is the trust of the bulk registrar API.
	ConfidenceBulk = 0.99

	// ConfidenceFallbackTLD is the trust of a TLD-specific RDAP endpoint.
	ConfidenceFallbackTLD = 0.95

	// ConfidenceFallbackBootstrap is the trust of the generic RDAP
	// bootstrap endpoint.
	ConfidenceFallbackBootstrap = 0.90

	// ConfidenceDenied is the conservative-denial outcome.
	ConfidenceDenied = 0.0

	// MinAvailableConfidence gates Available == true. A record below this
	// threshold must never report a domain as available.
	MinAvailableConfidence = 0.95
)

// Record is an immutable availability determination for a single domain.
// Records are superseded by newer records, never mutated.
type Record struct {
	Domain     string           `json:"domain"`
	Available  bool             `json:"available"`
	Confidence float64          `json:"confidence"`
	Source     Source           `json:"source"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	ObservedAt time.Time        `json:"observed_at"`
}

// Denial is the conservative outcome when no oracle could answer.
func Denial(domain string, at time.Time) Record {
	return Record{
		Domain:     domain,
		Available:  false,
		Confidence: ConfidenceDenied,
		Source:     SourceFallback,
		ObservedAt: at,
	}
}

// Sanitize enforces the zero-false-positive invariant: an available record
// below the confidence gate is coerced to an unavailable zero-confidence one.
func (r Record) Sanitize() Record {
	if r.Available && r.Confidence < MinAvailableConfidence {
		r.Available = false
		r.Confidence = ConfidenceDenied
	}
	return r
}

// Cacheable reports whether the record may be persisted to the freshness
// cache. Zero-confidence results must never poison the cache.
func (r Record) Cacheable() bool {
	return r.Confidence > ConfidenceDenied
}

// AsCacheHit returns a copy re-tagged as served from cache. Confidence is
// inherited from the original source.
func (r Record) AsCacheHit() Record {
	r.Source = SourceCache
	return r
}
