// Package pool holds the durable store of previously-discovered available
// domain candidates. The pool is never ground truth for "available right
// now"; it only pre-selects plausible candidates so live checks stay cheap.
package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Candidate is one believed-available domain with scoring metadata.
// QualityScore and Embedding are attached lazily by an out-of-band scorer
// and may be absent.
type Candidate struct {
	ID              uuid.UUID
	Domain          string
	Word            string
	TLD             string
	Length          int
	PhoneticPattern string
	QualityScore    *float64
	Embedding       []float64
	DiscoveredAt    time.Time
}

// Filter constrains pool sampling. Zero values mean "no constraint".
type Filter struct {
	TLD       string
	MinLength int
	MaxLength int
	Pattern   string
	Prefix    string
	Suffix    string
	Limit     int
}

// Store is the pool persistence contract. Inserts are idempotent keyed by
// domain; deletes are at-least-once.
type Store interface {
	// Insert adds a candidate unless the domain is already pooled.
	// Returns true when a new row was created.
	Insert(ctx context.Context, c Candidate) (bool, error)

	// Exists reports whether the domain is already pooled.
	Exists(ctx context.Context, domain string) (bool, error)

	// Sample returns a random (not rank-ordered) selection matching the
	// filter, bounded by its limit.
	Sample(ctx context.Context, f Filter) ([]Candidate, error)

	// List returns every candidate matching the filter in domain order, so
	// repeated calls against an unchanged pool see the same sequence. A
	// positive filter limit truncates the ordered result.
	List(ctx context.Context, f Filter) ([]Candidate, error)

	// Delete evicts a candidate by domain. Deleting an absent domain is
	// not an error.
	Delete(ctx context.Context, domain string) error

	// AttachScore sets the lazily-computed quality score and embedding.
	AttachScore(ctx context.Context, domain string, score float64, embedding []float64) error

	// Count returns the number of pooled candidates for a TLD; empty TLD
	// counts everything.
	Count(ctx context.Context, tld string) (int, error)
}
