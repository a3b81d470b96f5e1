package delivery

import (
	"regexp"
	"strings"
)

var (
	wsRegex       = regexp.MustCompile(`\s+`)
	sepRegex      = regexp.MustCompile(`[\s._-]+`)
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9 ]`)

	// curated synonym set; compared after lowercasing and stripping
	// punctuation, common misspellings included on purpose.
	noConcernSynonyms = map[string]struct{}{
		"no concern":   {},
		"no concerns":  {},
		"none":         {},
		"no":           {},
		"na":           {},
		"n a":          {},
		"no cencern":   {},
		"no cencerns":  {},
		"no cencer":    {},
		"no cencers":   {},
		"no concernss": {},
	}
)

func normalizeConcern(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return wsRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

func isNoConcern(s string) bool {
	s = strings.ToLower(s)
	s = sepRegex.ReplaceAllString(s, " ")
	s = nonAlnumRegex.ReplaceAllString(s, "")
	_, ok := noConcernSynonyms[strings.TrimSpace(s)]
	return ok
}

// NormalizeConcerns trims and whitespace-collapses each entry, drops empties
// and duplicates (first occurrence wins), and empties the whole list when
// any entry is a "no concerns" synonym: a single such entry wins over any
// co-submitted concerns.
func NormalizeConcerns(raw []string) []string {
	normalized := make([]string, 0, len(raw))
	for _, c := range raw {
		if n := normalizeConcern(c); n != "" {
			normalized = append(normalized, n)
		}
	}
	for _, c := range normalized {
		if isNoConcern(c) {
			return []string{}
		}
	}
	seen := make(map[string]struct{}, len(normalized))
	out := make([]string, 0, len(normalized))
	for _, c := range normalized {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
