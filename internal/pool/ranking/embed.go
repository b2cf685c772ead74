// Package ranking scores pool candidates against a free-text query so only
// the most relevant ones pay for a live re-verification. The embedding is a
// pure function of its input: hash- and character-statistics features, no
// model, no external calls.
package ranking

import (
	"hash/fnv"
	"math"
	"strings"
)

// Dimensions of the embedding vector:
// 26 character-frequency bins, 16 bigram-hash bins, vowel ratio, length,
// concept boosts and hashed filler up to 64.
const (
	charBins   = 26
	bigramBins = 16
	Dim        = 64
)

// conceptBoosts nudges dedicated dimensions for recognizable naming themes
// so "fitness app" and a sporty candidate land near each other.
var conceptBoosts = map[string]int{
	"tech": 44, "app": 44, "software": 44, "data": 45, "cloud": 45,
	"ai": 45, "health": 46, "fitness": 46, "sport": 46, "wellness": 46,
	"finance": 47, "money": 47, "pay": 47, "shop": 48, "commerce": 48,
	"store": 48, "food": 49, "travel": 50, "game": 51, "media": 52,
	"social": 52, "learn": 53, "education": 53,
}

// Embed maps text to a fixed-length L2-normalized vector. Identical input
// always yields an identical vector.
func Embed(text string) []float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	vec := make([]float64, Dim)
	if text == "" {
		return vec
	}

	letters := 0
	vowels := 0
	for _, r := range text {
		if r < 'a' || r > 'z' {
			continue
		}
		vec[r-'a']++
		letters++
		if strings.ContainsRune("aeiou", r) {
			vowels++
		}
	}

	for i := 0; i+1 < len(text); i++ {
		bigram := text[i : i+2]
		h := fnv.New32a()
		_, _ = h.Write([]byte(bigram))
		vec[charBins+int(h.Sum32()%bigramBins)]++
	}

	if letters > 0 {
		vec[charBins+bigramBins] = float64(vowels) / float64(letters)
	}
	vec[charBins+bigramBins+1] = float64(len(text)) / 32.0

	for _, token := range strings.Fields(text) {
		if dim, ok := conceptBoosts[token]; ok {
			vec[dim] += 2.0
		}
	}

	// Hashed filler dimensions keep unrelated strings from collapsing
	// onto the same sparse axes.
	for _, token := range strings.Fields(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[54+int(h.Sum32()%uint32(Dim-54))] += 0.5
	}

	return normalize(vec)
}

// Cosine returns the cosine similarity of two equal-length vectors, zero
// when either has no magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
