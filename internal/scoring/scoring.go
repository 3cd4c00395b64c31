// Package scoring counts buzzword mentions in an ingested news corpus.
package scoring

import "strings"

// Mentions returns the total number of non-overlapping occurrences of any
// keyword across all corpus fragments. Matching is case-insensitive and
// purely literal: a keyword like "c++" matches only the text "c++", and a
// keyword occurring inside a larger word still counts. Deterministic for a
// given corpus and keyword set.
func Mentions(corpus []string, keywords []string) int {
	total := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			// strings.Count with an empty substring counts rune
			// boundaries, which is never a mention.
			continue
		}
		for _, text := range corpus {
			total += strings.Count(strings.ToLower(text), kw)
		}
	}
	return total
}
