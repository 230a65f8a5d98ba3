package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFlagsSensationalText(t *testing.T) {
	d := NewDetector()

	res := d.Analyze("SHOCKING EXPLOSIVE bombshell!!!!!!!!!! Wake up! The deep state cover-up they dont want you to know, mainstream media wont tell you the hidden truth! Censored!")
	assert.Equal(t, "FAKE", res.Prediction)
	assert.Greater(t, res.Confidence, 0.6)
	assert.Less(t, res.CredibilityScore, 40.0)
}

func TestAnalyzeAcceptsAttributedText(t *testing.T) {
	d := NewDetector()

	res := d.Analyze(`According to Reuters, the ministry confirmed the figures on January 12, 2025. "The data is final," said Officials.`)
	assert.Equal(t, "REAL", res.Prediction)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
}

func TestAnalyzeNeutralTextIsNotFake(t *testing.T) {
	d := NewDetector()

	res := d.Analyze("City council approves new budget for road maintenance")
	assert.Equal(t, "REAL", res.Prediction)
}

func TestExtractFeaturesShortInput(t *testing.T) {
	d := NewDetector()

	feats := d.ExtractFeatures("ok")
	for name, v := range feats {
		assert.Zerof(t, v, "feature %s", name)
	}
}

func TestExtractFeaturesBounded(t *testing.T) {
	d := NewDetector()

	feats := d.ExtractFeatures("SHOCKING!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	for name, v := range feats {
		assert.GreaterOrEqualf(t, v, 0.0, "feature %s", name)
		assert.LessOrEqualf(t, v, 1.0, "feature %s", name)
	}
}

func TestExtractClaims(t *testing.T) {
	claims := ExtractClaims("A new study shows 75 percent of adults sleep badly. The weather was nice. Officials announced a new policy according to the ministry.")
	require.NotEmpty(t, claims)
	assert.LessOrEqual(t, len(claims), 5)
	for _, c := range claims {
		assert.NotContains(t, c, "The weather was nice")
	}
}

func TestExtractClaimsEmpty(t *testing.T) {
	assert.Empty(t, ExtractClaims("Lovely day outside."))
}

func TestClassifyTopic(t *testing.T) {
	assert.Equal(t, "health", ClassifyTopic("New vaccine approved by FDA for cancer treatment"))
	assert.Equal(t, "politics", ClassifyTopic("Senate passes election law ahead of the vote"))
	assert.Equal(t, TopicGeneral, ClassifyTopic("Local bakery wins pie contest"))
}

func TestClassifyTopicDeterministicTieBreak(t *testing.T) {
	// One keyword from each of two topics; the lexicographically
	// smaller topic must win every time.
	got := ClassifyTopic("nasa crypto")
	for i := 0; i < 20; i++ {
		assert.Equal(t, got, ClassifyTopic("nasa crypto"))
	}
}

func TestTopicsStableOrder(t *testing.T) {
	first := Topics()
	assert.Equal(t, TopicGeneral, first[len(first)-1])
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Topics())
	}
}
