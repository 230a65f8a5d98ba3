package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
)

func TestBuildFeaturesNeutralDefaults(t *testing.T) {
	fv := BuildFeatures(SignalInput{Prediction: "REAL", Confidence: 0.5}, nil, nil, nil)
	require.Len(t, fv, NumFeatures)
	assert.InDelta(t, 0.5, fv[0], 1e-9) // nlp at coin flip
	for i := 1; i < NumFeatures; i++ {
		assert.InDeltaf(t, 0.5, fv[i], 1e-9, "feature %d", i)
	}
}

func TestBuildFeaturesDirections(t *testing.T) {
	rec := &verifier.Record{
		Mentions:     verifier.MentionResult{Checked: true, VerifiedMentions: 5},
		SourcesFound: 5,
		FactCheck:    verifier.FactCheckResult{Found: true, Verified: true},
		Tier:         "high",
	}
	fv := BuildFeatures(
		SignalInput{Prediction: "REAL", Confidence: 0.9},
		&SignalInput{Prediction: "REAL", Confidence: 0.8},
		rec,
		[]ClaimCheck{{Verified: true}, {Verified: true}},
	)

	assert.InDelta(t, 0.1, fv[0], 1e-9) // nlp says real
	assert.InDelta(t, 0.2, fv[1], 1e-9) // transformer says real
	assert.InDelta(t, 0.0, fv[2], 1e-9) // saturated verified mentions
	assert.InDelta(t, 0.0, fv[3], 1e-9) // saturated trusted sources
	assert.InDelta(t, 0.0, fv[4], 1e-9) // fact-checked true
	assert.InDelta(t, 0.0, fv[5], 1e-9) // high tier
	assert.InDelta(t, 0.0, fv[6], 1e-9) // all claims verified
}

func TestBuildFeaturesFakeDirections(t *testing.T) {
	rec := &verifier.Record{
		FactCheck: verifier.FactCheckResult{Found: true, Verified: false},
		Tier:      "unreliable",
	}
	fv := BuildFeatures(
		SignalInput{Prediction: "FAKE", Confidence: 0.9},
		&SignalInput{Prediction: "FAKE", Confidence: 0.7},
		rec,
		[]ClaimCheck{{Verified: false}, {Verified: true}},
	)

	assert.InDelta(t, 0.9, fv[0], 1e-9)
	assert.InDelta(t, 0.7, fv[1], 1e-9)
	assert.InDelta(t, 0.5, fv[2], 1e-9) // mentions never checked
	assert.InDelta(t, 1.0, fv[3], 1e-9) // zero corroborating sources
	assert.InDelta(t, 1.0, fv[4], 1e-9) // fact-checked false
	assert.InDelta(t, 1.0, fv[5], 1e-9) // unreliable tier
	assert.InDelta(t, 0.5, fv[6], 1e-9) // half the claims unverified
}

func TestBuildFeaturesPartialMentions(t *testing.T) {
	rec := &verifier.Record{
		Mentions: verifier.MentionResult{Checked: true, VerifiedMentions: 2},
	}
	fv := BuildFeatures(SignalInput{Prediction: "REAL", Confidence: 0.5}, nil, rec, nil)
	assert.InDelta(t, 0.6, fv[2], 1e-9) // 1 - 2/5
	assert.InDelta(t, 1.0, fv[3], 1e-9)
}

func TestBuildFeaturesUnknownTierNeutral(t *testing.T) {
	rec := &verifier.Record{Tier: "unknown"}
	fv := BuildFeatures(SignalInput{Prediction: "REAL", Confidence: 0.5}, nil, rec, nil)
	assert.InDelta(t, 0.5, fv[5], 1e-9)
}

func TestBuildFeaturesDeterministic(t *testing.T) {
	rec := &verifier.Record{SourcesFound: 3, Tier: "medium"}
	a := BuildFeatures(SignalInput{Prediction: "FAKE", Confidence: 0.8}, nil, rec, nil)
	b := BuildFeatures(SignalInput{Prediction: "FAKE", Confidence: 0.8}, nil, rec, nil)
	assert.Equal(t, a, b)
}
