// Package enumerate walks a deterministic space of brandable words and
// feeds the ones that check out into the candidate pool. The space is fully
// indexable, so a single position integer is enough to resume after a crash.
package enumerate

import (
	"sort"
	"strings"
)

// Brandable-word alphabets. q and x rarely appear in names people like, so
// they are left out of the consonant set.
var (
	consonants = []rune("bcdfghjklmnprstvwz")
	vowels     = []rune("aeiou")

	startClusters = []string{
		"bl", "br", "ch", "cl", "cr", "dr", "fl", "fr", "gl", "gr",
		"pl", "pr", "sc", "sh", "sk", "sl", "sm", "sn", "sp", "st",
		"sw", "th", "tr", "tw", "wh", "wr",
	}

	// midClusters are the ending clusters that also read well mid-word.
	midClusters = []string{
		"ld", "lf", "lk", "lm", "lp", "lt", "mp", "nd", "ng", "nk",
		"nt", "rb", "rd", "rg", "rk", "rm", "rn", "rp", "rt",
	}

	// badDigraphs are letter pairs that make a word unpronounceable or
	// just ugly.
	badDigraphs = []string{
		"aa", "ii", "uu",
		"bv", "fv", "gj", "hj", "kj", "pv", "vb", "vf", "vp",
		"jr", "rj", "wj", "jw", "zj", "jz",
	}
)

// Space is an immutable, sorted, deduplicated word list. Sorting keeps the
// index-to-word mapping stable across restarts and across processes.
type Space struct {
	id    string
	words []string
}

// NewSpace materializes the full phonotactic space: CVCV, CVCVC, CCVCV,
// CVCCV, CVCVCV and CCVCVC words that pass the pronounceability filter.
func NewSpace() *Space {
	seen := make(map[string]struct{})
	emit := func(word string) {
		if isPronounceable(word) {
			seen[word] = struct{}{}
		}
	}

	// CVCV and CVCVC and CVCVCV share a common nested walk.
	for _, c1 := range consonants {
		for _, v1 := range vowels {
			for _, c2 := range consonants {
				for _, v2 := range vowels {
					stem := string([]rune{c1, v1, c2, v2})
					emit(stem)
					for _, c3 := range consonants {
						emit(stem + string(c3))
						for _, v3 := range vowels {
							emit(stem + string(c3) + string(v3))
						}
					}
				}
			}
		}
	}

	// CCVCV and CCVCVC.
	for _, cc := range startClusters {
		for _, v1 := range vowels {
			for _, c := range consonants {
				for _, v2 := range vowels {
					stem := cc + string(v1) + string(c) + string(v2)
					emit(stem)
					for _, c2 := range consonants {
						emit(stem + string(c2))
					}
				}
			}
		}
	}

	// CVCCV.
	for _, c1 := range consonants {
		for _, v1 := range vowels {
			for _, cc := range midClusters {
				for _, v2 := range vowels {
					emit(string(c1) + string(v1) + cc + string(v2))
				}
			}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)

	return &Space{id: "phonotactic-v1", words: words}
}

// ID names the space; checkpoints are keyed by it so a changed generator
// never resumes against a mismatched word list.
func (s *Space) ID() string { return s.id }

// Len returns the total number of words in the space.
func (s *Space) Len() int { return len(s.words) }

// At returns the word at position i, false when i is past the end.
func (s *Space) At(i int) (string, bool) {
	if i < 0 || i >= len(s.words) {
		return "", false
	}
	return s.words[i], true
}

// isPronounceable rejects words with ugly digraphs or three-letter runs of
// the same class.
func isPronounceable(word string) bool {
	for _, bad := range badDigraphs {
		if strings.Contains(word, bad) {
			return false
		}
	}

	consonantRun := 0
	vowelRun := 0
	for _, r := range word {
		if strings.ContainsRune(string(consonants), r) {
			consonantRun++
			vowelRun = 0
			if consonantRun >= 3 {
				return false
			}
		} else {
			vowelRun++
			consonantRun = 0
			if vowelRun >= 3 {
				return false
			}
		}
	}
	return true
}
