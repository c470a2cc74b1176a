package service

import (
	"fmt"
	"sort"

	"github.com/costplane/costplane/internal/canonical"
	mappingdomain "github.com/costplane/costplane/internal/mapping/domain"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	// Minimum score for a header/field pair to be suggested at all.
	suggestThreshold = 0.6
	// Minimum score for a suggestion to be confirmed as a mapping
	// without human review.
	autoMapThreshold = 0.88
)

// Suggest scores every folded header against the provider's known
// aliases and the canonical field names, and returns at most one
// suggestion per header: the top-scoring field. Exact alias hits score
// 1.0; near-misses are scored by normalized Levenshtein distance.
func Suggest(provider string, headers []string) []mappingdomain.Suggestion {
	aliases := canonical.DefaultAliases(provider)

	var out []mappingdomain.Suggestion
	for _, header := range canonical.FoldHeaders(headers) {
		best, ok := bestMatch(header, aliases)
		if !ok {
			continue
		}
		out = append(out, best)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func bestMatch(header string, aliases map[canonical.Field][]string) (mappingdomain.Suggestion, bool) {
	var (
		bestField  canonical.Field
		bestScore  float64
		bestReason string
	)

	consider := func(field canonical.Field, candidate, reason string) {
		score := similarity(header, candidate)
		if score > bestScore {
			bestField, bestScore, bestReason = field, score, reason
		}
	}

	for _, field := range canonical.Fields {
		consider(field, string(field), "matches canonical field name")
		for _, alias := range aliases[field] {
			consider(field, alias, fmt.Sprintf("matches provider alias %q", alias))
		}
	}

	if bestScore < suggestThreshold {
		return mappingdomain.Suggestion{}, false
	}
	return mappingdomain.Suggestion{
		SourceColumn: header,
		Field:        bestField,
		Score:        bestScore,
		Reason:       bestReason,
		AutoMapped:   bestScore >= autoMapThreshold,
	}, true
}

// similarity maps Levenshtein distance onto [0,1], where 1 is an exact
// match.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
