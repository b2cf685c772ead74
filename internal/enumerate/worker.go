package enumerate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"domainscout/internal/availability"
	"domainscout/internal/availability/oracle"
	"domainscout/internal/pool"
)

const (
	// defaultInterval spaces out checks to stay polite to registry RDAP
	// endpoints (30 checks per minute).
	defaultInterval = 2 * time.Second

	// defaultFlushEvery is how many checks pass between checkpoint writes
	// and progress logs.
	defaultFlushEvery = 100

	// saveTimeout bounds the final checkpoint write during shutdown, when
	// the run context is already canceled.
	saveTimeout = 5 * time.Second

	// defaultRecheckInterval is how long an exhausted worker idles before
	// re-materializing the space to look for new words.
	defaultRecheckInterval = 6 * time.Hour
)

// Worker walks one TLD through the pattern space, checking each word with
// the fallback oracle and pooling the available ones. Progress is
// checkpointed, so an interrupted run resumes where it left off instead of
// re-checking from zero.
type Worker struct {
	space       *Space
	tld         string
	oracle      oracle.Oracle
	pool        pool.Store
	checkpoints CheckpointStore
	logger      *slog.Logger
	clock       func() time.Time
	interval    time.Duration
	flushEvery  int
	limit       int
	recheck     time.Duration
	refresh     func() *Space
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

func WithLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) { w.logger = logger }
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) WorkerOption {
	return func(w *Worker) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithInterval overrides the delay between checks; tests set it to zero.
func WithInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.interval = d }
}

// WithFlushEvery overrides the checkpoint flush cadence.
func WithFlushEvery(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.flushEvery = n
		}
	}
}

// WithLimit stops the run after n checks. Zero means unlimited.
func WithLimit(n int) WorkerOption {
	return func(w *Worker) { w.limit = n }
}

// WithRecheckInterval overrides how long an exhausted worker idles before
// rechecking whether the space grew.
func WithRecheckInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.recheck = d
		}
	}
}

// WithSpaceRefresh overrides how an idle worker re-materializes the pattern
// space.
func WithSpaceRefresh(fn func() *Space) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.refresh = fn
		}
	}
}

// NewWorker constructs a Worker for one TLD.
func NewWorker(space *Space, tld string, o oracle.Oracle, poolStore pool.Store, checkpoints CheckpointStore, opts ...WorkerOption) (*Worker, error) {
	if space == nil {
		return nil, fmt.Errorf("pattern space is required")
	}
	if tld == "" {
		return nil, fmt.Errorf("tld is required")
	}
	if o == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if poolStore == nil {
		return nil, fmt.Errorf("pool store is required")
	}
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	w := &Worker{
		space:       space,
		tld:         tld,
		oracle:      o,
		pool:        poolStore,
		checkpoints: checkpoints,
		logger:      slog.Default(),
		clock:       time.Now,
		interval:    defaultInterval,
		flushEvery:  defaultFlushEvery,
		recheck:     defaultRecheckInterval,
		refresh:     NewSpace,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// spaceID keys the checkpoint: one cursor per space per TLD.
func (w *Worker) spaceID() string {
	return w.space.ID() + ":" + w.tld
}

// Run enumerates until the check limit is reached or the context is
// canceled. Exhausting the space does not end the run: the worker idles,
// periodically re-materializes the space, and resumes if it grew. An
// in-flight check is finished and the checkpoint persisted before
// returning.
func (w *Worker) Run(ctx context.Context) error {
	cp, found, err := w.checkpoints.Load(ctx, w.spaceID())
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if !found {
		cp = Checkpoint{SpaceID: w.spaceID()}
	}
	w.logger.InfoContext(ctx, "enumeration starting",
		"tld", w.tld,
		"space", w.space.Len(),
		"position", cp.LastPosition,
		"resumed", found)

	checkedThisRun := 0
	for {
		if ctx.Err() != nil {
			w.persist(cp)
			return nil
		}

		word, ok := w.space.At(cp.LastPosition)
		if !ok {
			w.persist(cp)
			w.logger.InfoContext(ctx, "enumeration space exhausted, idling",
				"tld", w.tld,
				"checked", cp.TotalChecked,
				"recheck_in", w.recheck)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.recheck):
			}

			// Positions are only comparable within one space version, so a
			// refreshed space is adopted only when it kept its identity and
			// gained words.
			refreshed := w.refresh()
			if refreshed != nil && refreshed.ID() == w.space.ID() && refreshed.Len() > w.space.Len() {
				w.logger.InfoContext(ctx, "pattern space grew, resuming",
					"tld", w.tld, "space", refreshed.Len())
				w.space = refreshed
			}
			continue
		}
		domain := word + "." + w.tld

		// Already-pooled domains are skipped without spending an oracle
		// call or a rate-limit slot.
		pooled, err := w.pool.Exists(ctx, domain)
		if err != nil {
			w.logger.WarnContext(ctx, "pool lookup failed, checking anyway",
				"domain", domain, "error", err)
		}
		if pooled {
			cp.LastPosition++
			continue
		}

		w.check(ctx, domain, word, &cp)
		cp.LastPosition++
		checkedThisRun++

		if cp.TotalChecked%w.flushEvery == 0 {
			w.persist(cp)
			w.logProgress(ctx, cp)
		}
		if w.limit > 0 && checkedThisRun >= w.limit {
			w.persist(cp)
			return nil
		}

		if w.interval > 0 {
			select {
			case <-ctx.Done():
				w.persist(cp)
				return nil
			case <-time.After(w.interval):
			}
		}
	}
}

// check runs one oracle lookup and folds the outcome into the checkpoint.
func (w *Worker) check(ctx context.Context, domain, word string, cp *Checkpoint) {
	cp.TotalChecked++

	rec, err := w.oracle.Check(ctx, domain)
	if err != nil {
		cp.TotalErrors++
		w.logger.WarnContext(ctx, "availability check failed",
			"domain", domain, "error", err)
		return
	}

	rec = rec.Sanitize()
	switch {
	case rec.Available:
		cp.TotalAvailable++
		candidate := pool.Candidate{
			Domain:          domain,
			Word:            word,
			TLD:             w.tld,
			Length:          len(word),
			PhoneticPattern: pool.DetectPattern(word),
			DiscoveredAt:    w.clock(),
		}
		if _, err := w.pool.Insert(ctx, candidate); err != nil {
			w.logger.WarnContext(ctx, "pool insert failed",
				"domain", domain, "error", err)
		}
	case rec.Confidence > availability.ConfidenceDenied:
		cp.TotalTaken++
	default:
		// Below-gate answers are unknowns, not takens.
		cp.TotalErrors++
	}
}

// persist writes the checkpoint on its own context so a canceled run still
// lands its final save.
func (w *Worker) persist(cp Checkpoint) {
	cp.UpdatedAt = w.clock()
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := w.checkpoints.Save(ctx, cp); err != nil {
		w.logger.Warn("checkpoint save failed",
			"space_id", cp.SpaceID, "position", cp.LastPosition, "error", err)
	}
}

func (w *Worker) logProgress(ctx context.Context, cp Checkpoint) {
	pct := 0.0
	if w.space.Len() > 0 {
		pct = float64(cp.LastPosition) / float64(w.space.Len()) * 100
	}
	w.logger.InfoContext(ctx, "enumeration progress",
		"tld", w.tld,
		"position", cp.LastPosition,
		"space", w.space.Len(),
		"progress_pct", fmt.Sprintf("%.1f", pct),
		"checked", cp.TotalChecked,
		"available", cp.TotalAvailable,
		"availability_pct", fmt.Sprintf("%.1f", cp.AvailabilityRate()),
		"taken", cp.TotalTaken,
		"errors", cp.TotalErrors)
}
