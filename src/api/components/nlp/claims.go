package nlp

import (
	"regexp"
	"strings"
)

// Sub-claim extraction: sentences carrying a factual assertion marker
// (numbers, study references, attribution verbs) are worth verifying
// independently of the full headline.

var claimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+%?\b`),
	regexp.MustCompile(`(?i)\b(?:study|research|report|data|statistics)\b`),
	regexp.MustCompile(`(?i)\b(?:announced|confirmed|stated|revealed)\b`),
	regexp.MustCompile(`(?i)\b(?:according to|as per|reported by)\b`),
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+|[.!?]+$`)

const maxClaims = 5

func ExtractClaims(text string) []string {
	var claims []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for _, p := range claimPatterns {
			if p.MatchString(s) {
				claims = append(claims, s)
				break
			}
		}
		if len(claims) == maxClaims {
			break
		}
	}
	return claims
}
