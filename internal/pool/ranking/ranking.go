package ranking

import (
	"sort"

	"domainscout/internal/pool"
)

// neutralQuality substitutes for candidates whose out-of-band quality score
// has not been attached yet: the midpoint of the 0-10 scale.
const neutralQuality = 5.0

// Scored pairs a candidate with its relevance breakdown.
type Scored struct {
	Candidate  pool.Candidate
	Similarity float64
	FinalScore float64
}

// Rank scores candidates against the query and returns the top n by final
// score. Candidates without a stored embedding are embedded from their word
// on the fly; the whole computation is deterministic, so an unchanged pool
// and query always produce an identical ordering with identical scores.
func Rank(query string, candidates []pool.Candidate, n int) []Scored {
	queryVec := Embed(query)

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		vec := c.Embedding
		if len(vec) != Dim {
			vec = Embed(c.Word)
		}
		similarity := Cosine(queryVec, vec)

		quality := neutralQuality
		if c.QualityScore != nil {
			quality = *c.QualityScore
		}

		boost := (similarity + 0.5) * 1.5
		final := clamp(quality+boost, 0, 10)

		scored = append(scored, Scored{
			Candidate:  c,
			Similarity: similarity,
			FinalScore: final,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].FinalScore != scored[j].FinalScore {
			return scored[i].FinalScore > scored[j].FinalScore
		}
		// Deterministic tie-break.
		return scored[i].Candidate.Domain < scored[j].Candidate.Domain
	})

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
