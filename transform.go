package main

import (
	"regexp"
	"strings"
)

var (
	clauseSplitRegex   = regexp.MustCompile(`\s*;\s*`)
	transformWordRegex = regexp.MustCompile(`\btransforms?\b`)
)

// Temporal/trigger phrasings that make a clause the more specific
// candidate when two candidates tie on length.
var temporalKeywords = []string{"when", "starting", "turn", "entry", "once only"}

func hasTemporalKeyword(clause string) bool {
	low := strings.ToLower(clause)
	for _, kw := range temporalKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

// pickCondition selects the winning condition clause: the longest
// candidate, ties broken by preferring clauses carrying a temporal or
// trigger keyword.
func pickCondition(candidates []string) string {
	best := ""
	for _, c := range candidates {
		c = condenseSpaces(c)
		switch {
		case len(c) > len(best):
			best = c
		case len(c) == len(best) && !hasTemporalKeyword(best) && hasTemporalKeyword(c):
			best = c
		}
	}
	return best
}

// extractTransformAndExchange post-processes the assembled passive effect:
// clauses mentioning a reversible exchange or a transformation are pulled
// out of the general effect text and become the respective condition, so
// the same sentence is never shown twice.
func extractTransformAndExchange(passiveEffect string) (cleaned string, t Transformation, x ReversibleExchange) {
	if passiveEffect == "" {
		return "", Transformation{}, ReversibleExchange{}
	}

	var keep, transformClauses, exchangeClauses []string
	for _, c := range clauseSplitRegex.Split(passiveEffect, -1) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		low := strings.ToLower(c)
		switch {
		case strings.Contains(low, "reversible exchange"):
			exchangeClauses = append(exchangeClauses, c)
		case transformWordRegex.MatchString(low) || strings.Contains(low, "transformation"):
			transformClauses = append(transformClauses, c)
		default:
			keep = append(keep, c)
		}
	}

	transformCond := pickCondition(transformClauses)
	exchangeCond := pickCondition(exchangeClauses)

	cleaned = strings.TrimSpace(strings.Join(keep, "; "))
	t = Transformation{CanTransform: transformCond != "", Condition: transformCond}
	x = ReversibleExchange{CanExchange: exchangeCond != "", Condition: exchangeCond}
	return cleaned, t, x
}
