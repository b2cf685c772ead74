// Package oracle provides the adapters that answer "is this domain
// registered?" against external services. Each adapter maps its upstream
// protocol onto availability.Record and reports failures through the
// normalized error taxonomy; deciding what happens after a failure is the
// resolver's job, never the adapter's.
package oracle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"domainscout/internal/availability"
)

// Timeout bounds every oracle HTTP call. Single-digit seconds: a slow
// answer is treated the same as no answer.
const Timeout = 8 * time.Second

// Oracle answers availability for one domain at a time.
type Oracle interface {
	// Name identifies the adapter in logs and metrics.
	Name() string

	// Check returns an availability record for the domain, or an error
	// when the source could not answer. Adapters never substitute a guess
	// for an error.
	Check(ctx context.Context, domain string) (availability.Record, error)
}

// BatchOracle additionally supports checking several domains in one call.
type BatchOracle interface {
	Oracle

	// MaxBatchSize is the largest batch a single upstream call accepts.
	MaxBatchSize() int

	// CheckBatch checks up to MaxBatchSize domains in one upstream call.
	CheckBatch(ctx context.Context, domains []string) ([]availability.Record, error)
}

// NewHTTPClient returns the shared client used by all adapters.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: Timeout}
}

// splitDomain separates "zevo.ai" into ("zevo", "ai"). The TLD is the part
// after the last dot; multi-label TLDs are not supported by any endpoint
// table here.
func splitDomain(domain string) (word, tld string) {
	idx := strings.LastIndex(domain, ".")
	if idx < 0 {
		return domain, ""
	}
	return domain[:idx], domain[idx+1:]
}
