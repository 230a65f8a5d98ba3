package quiz

import "encoding/json"

// Curated fallback questions served when the adaptive pool is empty.
var staticQuestions = []Question{
	{
		ID:            "q1",
		Headline:      "Scientists discover water on Mars",
		CorrectAnswer: "REAL",
		Topic:         "science",
		Difficulty:    "easy",
		Explanation:   "NASA confirmed water ice on Mars in peer-reviewed studies.",
		Source:        "static",
	},
	{
		ID:            "q2",
		Headline:      "Drinking bleach cures all diseases!!",
		CorrectAnswer: "FAKE",
		Topic:         "health",
		Difficulty:    "easy",
		Explanation:   "Dangerous health misinformation. Bleach is toxic.",
		Source:        "static",
	},
	{
		ID:            "q3",
		Headline:      "Study shows moderate coffee consumption linked to longer lifespan",
		CorrectAnswer: "REAL",
		Topic:         "health",
		Difficulty:    "medium",
		Explanation:   "Multiple large-scale studies support this.",
		Source:        "static",
	},
	{
		ID:            "q4",
		Headline:      "Experts say 5G causes COVID-19, mainstream media won't cover it",
		CorrectAnswer: "FAKE",
		Topic:         "technology",
		Difficulty:    "hard",
		Explanation:   "Debunked conspiracy theory. 5G and COVID-19 are unrelated.",
		Source:        "static",
	},
}

func StaticQuestions() []Question {
	out := make([]Question, len(staticQuestions))
	copy(out, staticQuestions)
	return out
}

func staticQuestion(id string) (Question, bool) {
	for _, q := range staticQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func encodeVector(fv []float64) string {
	if len(fv) == 0 {
		return ""
	}
	raw, err := json.Marshal(fv)
	if err != nil {
		return ""
	}
	return string(raw)
}

func decodeVector(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var fv []float64
	err := json.Unmarshal([]byte(s), &fv)
	return fv, err
}
