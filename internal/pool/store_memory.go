package pool

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory pool twin used by unit tests and local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]Candidate
}

// NewMemoryStore constructs an empty in-memory pool.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{candidates: make(map[string]Candidate)}
}

func (s *MemoryStore) Insert(_ context.Context, c Candidate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.candidates[c.Domain]; exists {
		return false, nil
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.candidates[c.Domain] = c
	return true, nil
}

func (s *MemoryStore) Exists(_ context.Context, domain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.candidates[domain]
	return ok, nil
}

func (s *MemoryStore) Sample(_ context.Context, f Filter) ([]Candidate, error) {
	s.mu.RLock()
	var matched []Candidate
	for _, c := range s.candidates {
		if matches(c, f) {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	rand.Shuffle(len(matched), func(i, j int) {
		matched[i], matched[j] = matched[j], matched[i]
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Candidate, error) {
	s.mu.RLock()
	var matched []Candidate
	for _, c := range s.candidates {
		if matches(c, f) {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Domain < matched[j].Domain
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) Delete(_ context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.candidates, domain)
	return nil
}

func (s *MemoryStore) AttachScore(_ context.Context, domain string, score float64, embedding []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[domain]
	if !ok {
		return ErrNotFound
	}
	c.QualityScore = &score
	c.Embedding = embedding
	s.candidates[domain] = c
	return nil
}

func (s *MemoryStore) Count(_ context.Context, tld string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tld == "" {
		return len(s.candidates), nil
	}
	count := 0
	for _, c := range s.candidates {
		if c.TLD == tld {
			count++
		}
	}
	return count, nil
}

func matches(c Candidate, f Filter) bool {
	if f.TLD != "" && c.TLD != f.TLD {
		return false
	}
	if f.MinLength > 0 && c.Length < f.MinLength {
		return false
	}
	if f.MaxLength > 0 && c.Length > f.MaxLength {
		return false
	}
	if f.Pattern != "" && c.PhoneticPattern != strings.ToUpper(f.Pattern) {
		return false
	}
	if f.Prefix != "" && !strings.HasPrefix(c.Word, f.Prefix) {
		return false
	}
	if f.Suffix != "" && !strings.HasSuffix(c.Word, f.Suffix) {
		return false
	}
	return true
}
