package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainscout/internal/availability"
	"domainscout/internal/pool"
)

// stubVerifier answers from a canned availability map; unknown domains get a
// conservative denial.
type stubVerifier struct {
	mu        sync.Mutex
	available map[string]bool
	batches   [][]string
}

func (v *stubVerifier) ResolveBatch(_ context.Context, domains []string) []availability.Record {
	v.mu.Lock()
	v.batches = append(v.batches, append([]string(nil), domains...))
	v.mu.Unlock()

	records := make([]availability.Record, len(domains))
	for i, d := range domains {
		avail, known := v.available[d]
		if !known {
			records[i] = availability.Denial(d, time.Now())
			continue
		}
		records[i] = availability.Record{
			Domain:     d,
			Available:  avail,
			Confidence: availability.ConfidencePrimary,
			Source:     availability.SourcePrimary,
			ObservedAt: time.Now(),
		}
	}
	return records
}

func (v *stubVerifier) lastBatch() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.batches) == 0 {
		return nil
	}
	return v.batches[len(v.batches)-1]
}

// spyStore records the filter of the last sample or list call.
type spyStore struct {
	*pool.MemoryStore
	lastFilter pool.Filter
}

func (s *spyStore) Sample(ctx context.Context, f pool.Filter) ([]pool.Candidate, error) {
	s.lastFilter = f
	return s.MemoryStore.Sample(ctx, f)
}

func (s *spyStore) List(ctx context.Context, f pool.Filter) ([]pool.Candidate, error) {
	s.lastFilter = f
	return s.MemoryStore.List(ctx, f)
}

func seed(t *testing.T, store pool.Store, words ...string) {
	t.Helper()
	for _, w := range words {
		_, err := store.Insert(context.Background(), pool.Candidate{
			Domain: w + ".ai",
			Word:   w,
			TLD:    "ai",
			Length: len(w),
		})
		require.NoError(t, err)
	}
}

func TestNew(t *testing.T) {
	store := pool.NewMemoryStore()
	verifier := &stubVerifier{}

	_, err := New(nil, verifier)
	assert.Error(t, err)

	_, err = New(store, nil)
	assert.Error(t, err)

	svc, err := New(store, verifier)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestSampleCapsLimit(t *testing.T) {
	store := &spyStore{MemoryStore: pool.NewMemoryStore()}
	svc, err := New(store, &stubVerifier{})
	require.NoError(t, err)

	_, err = svc.Sample(context.Background(), pool.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastFilter.Limit, "zero limit gets the default")

	_, err = svc.Sample(context.Background(), pool.Filter{Limit: 999})
	require.NoError(t, err)
	assert.Equal(t, 200, store.lastFilter.Limit, "oversized limit is capped")
}

func TestSearchAndVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("only live-verified domains come back available", func(t *testing.T) {
		store := pool.NewMemoryStore()
		seed(t, store, "zevo", "kale", "bolta")

		verifier := &stubVerifier{available: map[string]bool{
			"zevo.ai":  true,
			"kale.ai":  false,
			"bolta.ai": true,
		}}
		svc, err := New(store, verifier)
		require.NoError(t, err)

		got, err := svc.SearchAndVerify(ctx, "", pool.Filter{}, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"zevo.ai", "bolta.ai"}, got.Verified)
		assert.ElementsMatch(t, []string{"kale.ai"}, got.Taken)
	})

	t.Run("taken domains are evicted from the pool", func(t *testing.T) {
		store := pool.NewMemoryStore()
		seed(t, store, "zevo", "kale")

		verifier := &stubVerifier{available: map[string]bool{
			"zevo.ai": true,
			"kale.ai": false,
		}}
		svc, err := New(store, verifier)
		require.NoError(t, err)

		_, err = svc.SearchAndVerify(ctx, "", pool.Filter{}, 10)
		require.NoError(t, err)
		svc.Wait()

		exists, err := store.Exists(ctx, "kale.ai")
		require.NoError(t, err)
		assert.False(t, exists, "taken candidate must be evicted")

		exists, err = store.Exists(ctx, "zevo.ai")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("a denial neither verifies nor evicts", func(t *testing.T) {
		store := pool.NewMemoryStore()
		seed(t, store, "zevo")

		// No canned answer: the verifier denies conservatively.
		svc, err := New(store, &stubVerifier{})
		require.NoError(t, err)

		got, err := svc.SearchAndVerify(ctx, "", pool.Filter{}, 10)
		require.NoError(t, err)
		svc.Wait()
		assert.Empty(t, got.Verified)
		assert.Empty(t, got.Taken)

		exists, err := store.Exists(ctx, "zevo.ai")
		require.NoError(t, err)
		assert.True(t, exists, "unknown status must not evict")
	})

	t.Run("verified is bounded by the requested limit", func(t *testing.T) {
		store := pool.NewMemoryStore()
		available := make(map[string]bool)
		for _, w := range []string{"zevo", "kale", "bolta", "crivo", "melo"} {
			available[w+".ai"] = true
		}
		seed(t, store, "zevo", "kale", "bolta", "crivo", "melo")

		svc, err := New(store, &stubVerifier{available: available})
		require.NoError(t, err)

		got, err := svc.SearchAndVerify(ctx, "", pool.Filter{}, 2)
		require.NoError(t, err)
		assert.Len(t, got.Verified, 2)
	})

	t.Run("ranked search verifies a small margin past the limit", func(t *testing.T) {
		store := pool.NewMemoryStore()
		words := []string{"zevo", "kale", "bolta", "crivo", "melo", "tiva", "rono", "sela", "vamo", "gilo"}
		available := make(map[string]bool)
		for _, w := range words {
			available[w+".ai"] = true
		}
		seed(t, store, words...)

		verifier := &stubVerifier{available: available}
		svc, err := New(store, verifier)
		require.NoError(t, err)

		got, err := svc.SearchAndVerify(ctx, "fitness brand", pool.Filter{}, 3)
		require.NoError(t, err)
		assert.Len(t, got.Verified, 3)
		assert.Greater(t, len(verifier.lastBatch()), 3,
			"ranked search verifies past the limit so evictions do not starve it")
		assert.LessOrEqual(t, len(verifier.lastBatch()), 6, "bounded by the over-fetch")
	})
}

func TestInstantRank(t *testing.T) {
	ctx := context.Background()

	t.Run("identical results on an unchanged pool", func(t *testing.T) {
		// Far more candidates than the requested limit, so any sampling in
		// the selection would surface as run-to-run drift.
		words := []string{
			"zevo", "kale", "bolta", "crivo", "melo", "tiva", "rono", "sela",
			"vamo", "gilo", "kiro", "filo", "dena", "pova", "lumi", "sato",
			"wexa", "nilo", "brava", "cleto", "drivo", "flano", "grimo", "hesto",
		}
		store := pool.NewMemoryStore()
		seed(t, store, words...)

		svc, err := New(store, &stubVerifier{})
		require.NoError(t, err)

		first, err := svc.InstantRank(ctx, "fitness app", pool.Filter{}, 2)
		require.NoError(t, err)
		require.Len(t, first, 2)

		second, err := svc.InstantRank(ctx, "fitness app", pool.Filter{}, 2)
		require.NoError(t, err)
		require.Len(t, second, 2)

		for i := range first {
			assert.Equal(t, first[i].Candidate.Domain, second[i].Candidate.Domain)
			assert.Equal(t, first[i].FinalScore, second[i].FinalScore)
		}
	})

	t.Run("ranks the full filtered pool, not a capped selection", func(t *testing.T) {
		store := &spyStore{MemoryStore: pool.NewMemoryStore()}
		seed(t, store, "zevo", "kale", "bolta")

		svc, err := New(store, &stubVerifier{})
		require.NoError(t, err)

		got, err := svc.InstantRank(ctx, "fitness app", pool.Filter{TLD: "ai"}, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, 0, store.lastFilter.Limit, "listing must stay unbounded")
		assert.Equal(t, "ai", store.lastFilter.TLD)
	})
}
