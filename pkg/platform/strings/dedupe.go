// Package strings provides string slice utilities shared across modules.
package strings

import "strings"

// DedupeAndTrimLower lowercases and trims every element, drops empties and
// duplicates, and preserves first-seen order. Used wherever user-supplied
// lists (TLDs, domains) need normalizing.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
