package ensemble

import (
	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
)

// SignalInput is one upstream detector's contribution: its label and
// how confident it was.
type SignalInput struct {
	Prediction string
	Confidence float64
}

// ClaimCheck is the verification outcome for one extracted sub-claim.
type ClaimCheck struct {
	Claim      string  `json:"claim"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Detail     string  `json:"detail,omitempty"`
}

// tierSignal maps a credibility tier onto [0,1] fake-direction space.
var tierSignal = map[string]float64{
	"high":       0.0,
	"medium":     0.33,
	"low":        0.67,
	"unverified": 0.5,
	"unreliable": 1.0,
}

// BuildFeatures assembles the feature vector, index-aligned to
// FeatureNames. Every component lands in [0,1] with 1 pointing toward
// FAKE; absent signals sit at the neutral 0.5.
func BuildFeatures(nlp SignalInput, transformer *SignalInput, v *verifier.Record, claims []ClaimCheck) []float64 {
	fv := make([]float64, NumFeatures)

	// nlp_fake_prob
	if nlp.Prediction == "FAKE" {
		fv[0] = nlp.Confidence
	} else {
		fv[0] = 1 - nlp.Confidence
	}

	// transformer_fake
	fv[1] = 0.5
	if transformer != nil {
		if transformer.Prediction == "FAKE" {
			fv[1] = transformer.Confidence
		} else {
			fv[1] = 1 - transformer.Confidence
		}
	}

	// twitter_signal: verified mentions corroborate, so more of them
	// pull toward REAL.
	fv[2] = 0.5
	// newsapi_signal
	fv[3] = 0.5
	// factcheck_signal
	fv[4] = 0.5
	// source_credibility
	fv[5] = 0.5
	if v != nil {
		if v.Mentions.Checked {
			fv[2] = 1 - minf(float64(v.Mentions.VerifiedMentions)/5, 1)
		}
		fv[3] = 1 - minf(float64(v.SourcesFound)/5, 1)
		if v.FactCheck.Found {
			if v.FactCheck.Verified {
				fv[4] = 0
			} else {
				fv[4] = 1
			}
		}
		if s, ok := tierSignal[v.Tier]; ok {
			fv[5] = s
		}
	}

	// claim_unverified_ratio
	fv[6] = 0.5
	if len(claims) > 0 {
		unverified := 0
		for _, c := range claims {
			if !c.Verified {
				unverified++
			}
		}
		fv[6] = float64(unverified) / float64(len(claims))
	}

	return fv
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
