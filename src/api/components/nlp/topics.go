package nlp

import (
	"sort"
	"strings"
)

// Topic tagging by keyword overlap. Deliberately cheap: the quiz pool
// only needs a coarse bucket for per-user weak-topic targeting.

var topicKeywords = map[string][]string{
	"politics":      {"president", "government", "election", "congress", "senate", "democrat", "republican", "parliament", "minister", "policy", "vote", "law", "military", "war", "nato"},
	"health":        {"covid", "virus", "vaccine", "cancer", "drug", "medicine", "doctor", "hospital", "disease", "health", "fda", "who", "clinical", "study", "treatment"},
	"technology":    {"ai", "robot", "tech", "software", "app", "google", "apple", "microsoft", "crypto", "bitcoin", "hack", "cyber", "data", "algorithm", "5g", "internet"},
	"science":       {"nasa", "climate", "earth", "space", "research", "scientist", "study", "nature", "physics", "biology", "chemistry", "discovery", "experiment"},
	"business":      {"stock", "market", "economy", "bank", "finance", "company", "startup", "billion", "investment", "trade", "gdp", "inflation", "fed", "revenue"},
	"entertainment": {"celebrity", "movie", "music", "singer", "actor", "award", "grammy", "oscar", "hollywood", "netflix", "sport", "game", "football", "basketball"},
}

const TopicGeneral = "general"

// Topics returns every known topic label plus the general fallback,
// in a stable order.
func Topics() []string {
	out := make([]string, 0, len(topicKeywords)+1)
	for t := range topicKeywords {
		out = append(out, t)
	}
	sort.Strings(out)
	out = append(out, TopicGeneral)
	return out
}

func ClassifyTopic(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := TopicGeneral, 0
	for topic, kws := range topicKeywords {
		score := 0
		for _, kw := range kws {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && topic < best) {
			best, bestScore = topic, score
		}
	}
	if bestScore == 0 {
		return TopicGeneral
	}
	return best
}
