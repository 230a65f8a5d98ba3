package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule-based detector. Produces a fake-probability style score from
// surface features of the text; one of the pluggable signal sources
// feeding the ensemble, not a verdict on its own.

var sensationalWords = []string{
	"shocking", "explosive", "unbelievable", "incredible", "stunning", "outrageous",
	"bombshell", "unprecedented", "catastrophic", "devastating", "miracle",
	"revolutionary", "game-changing", "exclusive", "breaking", "urgent", "alert",
}

var conspiracyPhrases = []string{
	"cover-up", "conspiracy", "hidden truth", "they dont want you to know",
	"mainstream media wont tell you", "wake up", "globalist", "deep state",
	"illuminati", "new world order", "fake news media", "censored",
}

var vaguePhrases = []string{
	"experts say", "studies show", "reports indicate", "sources claim",
	"they say", "it is believed", "allegedly",
}

var emotionalWords = []string{
	"terrifying", "horrifying", "disgusting", "outraged", "furious",
	"appalled", "shocked", "sickening", "amazing",
}

var firstPersonPronouns = map[string]bool{
	"i": true, "me": true, "my": true, "mine": true,
	"we": true, "us": true, "our": true,
}

var (
	wordRe   = regexp.MustCompile(`\b[a-zA-Z']+\b`)
	dateRe   = regexp.MustCompile(`\b(?:\d{1,2}/\d{1,2}/\d{4}|[A-Za-z]+ \d{1,2},? \d{4})\b`)
	sourceRe = regexp.MustCompile(`\b(?:according to|said|reported|stated by)\s+(?:[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
)

type Result struct {
	Prediction       string             `json:"prediction"`
	Confidence       float64            `json:"confidence"`
	Features         map[string]float64 `json:"features,omitempty"`
	CredibilityScore float64            `json:"credibilityScore"`
}

type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

func (d *Detector) ExtractFeatures(text string) map[string]float64 {
	feats := map[string]float64{
		"all_caps_ratio": 0, "exclamation_ratio": 0, "sensational_ratio": 0,
		"conspiracy_ratio": 0, "vague_ratio": 0, "emotional_ratio": 0,
		"quote_ratio": 0, "date_ratio": 0, "source_ratio": 0, "pronoun_ratio": 0,
	}
	if len(strings.TrimSpace(text)) < 5 {
		return feats
	}

	lower := strings.ToLower(text)
	words := wordRe.FindAllString(lower, -1)
	nWords := len(words)
	if nWords == 0 {
		nWords = 1
	}

	upper := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	textLen := len([]rune(text))
	if textLen == 0 {
		textLen = 1
	}

	pronouns := 0
	for _, w := range words {
		if firstPersonPronouns[w] {
			pronouns++
		}
	}

	feats["all_caps_ratio"] = float64(upper) / float64(textLen)
	feats["exclamation_ratio"] = clamp01(float64(strings.Count(text, "!")) / 10.0)
	feats["sensational_ratio"] = listRatio(lower, sensationalWords)
	feats["conspiracy_ratio"] = listRatio(lower, conspiracyPhrases)
	feats["vague_ratio"] = listRatio(lower, vaguePhrases)
	feats["emotional_ratio"] = listRatio(lower, emotionalWords)
	feats["quote_ratio"] = clamp01(float64(strings.Count(text, `"`)/2) / 5.0)
	feats["date_ratio"] = clamp01(float64(len(dateRe.FindAllString(text, -1))) / 3.0)
	feats["source_ratio"] = clamp01(float64(len(sourceRe.FindAllString(text, -1))) / 3.0)
	feats["pronoun_ratio"] = float64(pronouns) / float64(nWords)
	return feats
}

// Analyze scores text against the feature tables. Attribution signals
// (quotes, dates, named sources) pull the score toward REAL.
func (d *Detector) Analyze(text string) Result {
	feats := d.ExtractFeatures(text)
	fs := feats["all_caps_ratio"]*0.10 +
		feats["exclamation_ratio"]*0.06 +
		feats["sensational_ratio"]*0.14 +
		feats["conspiracy_ratio"]*0.16 +
		feats["vague_ratio"]*0.10 +
		feats["emotional_ratio"]*0.12 +
		feats["pronoun_ratio"]*0.05 -
		feats["quote_ratio"]*0.10 -
		feats["date_ratio"]*0.12 -
		feats["source_ratio"]*0.15
	fs = clamp01(fs + 0.5)

	pred := "REAL"
	conf := 1 - fs
	if fs > 0.60 {
		pred = "FAKE"
		conf = fs
	}
	return Result{
		Prediction:       pred,
		Confidence:       conf,
		Features:         feats,
		CredibilityScore: (1 - fs) * 100,
	}
}

func listRatio(lower string, list []string) float64 {
	hits := 0
	for _, w := range list {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(list))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
