package pool

import "strings"

var (
	phoneticVowels     = "aeiou"
	phoneticConsonants = "bcdfghjklmnprstvwz"

	// Two-letter clusters classified as a single consonant sound.
	phoneticDigraphs = map[string]bool{
		"ch": true, "sh": true, "th": true, "wh": true,
		"wr": true, "ck": true, "ng": true, "nk": true,
	}
)

// DetectPattern classifies a word into a compact phonetic pattern such as
// CVCV or CVCVC: digraphs count as one consonant and consecutive identical
// classes are merged.
func DetectPattern(word string) string {
	word = strings.ToLower(word)

	var classes []byte
	for i := 0; i < len(word); {
		if i+1 < len(word) && phoneticDigraphs[word[i:i+2]] {
			classes = append(classes, 'C')
			i += 2
			continue
		}
		switch {
		case strings.IndexByte(phoneticVowels, word[i]) >= 0:
			classes = append(classes, 'V')
		case strings.IndexByte(phoneticConsonants, word[i]) >= 0:
			classes = append(classes, 'C')
		default:
			classes = append(classes, '?')
		}
		i++
	}

	var merged []byte
	for _, c := range classes {
		if len(merged) == 0 || merged[len(merged)-1] != c {
			merged = append(merged, c)
		}
	}
	return string(merged)
}
