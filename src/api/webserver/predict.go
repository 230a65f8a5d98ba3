package webserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
	"github.com/veritas-ai/veritas-api/src/api/components/social"
	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
	"github.com/veritas-ai/veritas-api/src/api/data"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

const (
	maxHeadlineLen = 10000
	maxClaimChecks = 3

	decisionThreshold = 0.60

	// Social modulation blends the crowd signal into the ensemble
	// probability instead of replacing it.
	ensembleWeight = 0.60
	twitterWeight  = 0.40
)

type Predict struct {
	store       *data.Store
	verifier    *verifier.Service
	social      *social.Scorer
	detector    *nlp.Detector
	transformer *nlp.TransformerClient
	model       *ensemble.Model
	quiz        *quiz.Pool
	sanitize    *bluemonday.Policy
}

func NewPredict(d Deps) Predict {
	return Predict{
		store:       d.Store,
		verifier:    d.Verifier,
		social:      d.Social,
		detector:    d.Detector,
		transformer: d.Transformer,
		model:       d.Model,
		quiz:        d.Quiz,
		sanitize:    bluemonday.StrictPolicy(),
	}
}

type predictRequest struct {
	Headline       string `json:"headline"`
	Text           string `json:"text"`
	Article        string `json:"article"`
	SourceURL      string `json:"source_url"`
	UseNLP         *bool  `json:"use_nlp"`
	UseTransformer *bool  `json:"use_transformer"`
}

func (r predictRequest) headline() string {
	for _, s := range []string{r.Headline, r.Text, r.Article} {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return ""
}

type componentResult struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	RawScore   float64 `json:"raw_score,omitempty"`
}

func (h Predict) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	headline := h.sanitize.Sanitize(req.headline())
	if headline == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "missing headline / text in request body"})
		return
	}
	if len(headline) > maxHeadlineLen {
		c.JSON(http.StatusBadRequest, gin.H{"err": fmt.Sprintf("input too long (max %d chars)", maxHeadlineLen)})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("uid")
	sourceURL := strings.TrimSpace(req.SourceURL)

	// URL fast path: satire short-circuits, known misinformation
	// sources pin the verification record.
	var urlCred *verifier.URLCredibility
	var vr verifier.Record
	haveRecord := false
	if sourceURL != "" {
		uc := verifier.ClassifyURL(sourceURL)
		urlCred = &uc
		switch uc.Credibility {
		case "satire":
			c.JSON(http.StatusOK, gin.H{
				"prediction": "SATIRE",
				"confidence": 0.99,
				"method":     "url_credibility",
				"source_verification": gin.H{
					"verified":         false,
					"sources_found":    0,
					"credibility_tier": "satire",
					"explanation":      "Known satire publication - content is intentionally fictional.",
				},
				"url_credibility": uc,
				"timestamp":       time.Now().UTC().Format(time.RFC3339),
			})
			return
		case "unreliable":
			vr = verifier.UnreliableSourceRecord()
			haveRecord = true
		}
	}
	if !haveRecord {
		var err error
		vr, err = h.verifier.Verify(ctx, headline)
		if err != nil {
			log.Printf("predict: verification failed: %v", err)
		}
	}

	// Sub-claim verification.
	var claimChecks []ensemble.ClaimCheck
	for _, claim := range nlp.ExtractClaims(headline) {
		if len(claimChecks) >= maxClaimChecks {
			break
		}
		cr, err := h.verifier.Verify(ctx, claim)
		if err != nil {
			log.Printf("predict: claim verification failed: %v", err)
			continue
		}
		claimChecks = append(claimChecks, ensemble.ClaimCheck{
			Claim:      claim,
			Verified:   cr.Verified,
			Confidence: cr.Confidence,
		})
	}

	components := map[string]componentResult{}
	nlpSignal := ensemble.SignalInput{Prediction: "REAL", Confidence: 0.5}
	if req.UseNLP == nil || *req.UseNLP {
		res := h.detector.Analyze(headline)
		nlpSignal = ensemble.SignalInput{Prediction: res.Prediction, Confidence: res.Confidence}
		components["nlp"] = componentResult{Prediction: res.Prediction, Confidence: res.Confidence}
	}
	var transformerSignal *ensemble.SignalInput
	if (req.UseTransformer == nil || *req.UseTransformer) && h.transformer != nil {
		if res, err := h.transformer.Analyze(ctx, headline); err != nil {
			log.Printf("predict: transformer failed: %v", err)
		} else {
			transformerSignal = &ensemble.SignalInput{Prediction: res.Prediction, Confidence: res.Confidence}
			components["transformer"] = componentResult{
				Prediction: res.Prediction,
				Confidence: res.Confidence,
				RawScore:   res.RawScore,
			}
		}
	}

	h.model.RefreshPerformance()
	fv := ensemble.BuildFeatures(nlpSignal, transformerSignal, &vr, claimChecks)
	rawLabel, fakeProb, err := h.model.Predict(fv)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "prediction failed"})
		return
	}

	// Social modulation. Verified newsroom mentions discount the crowd
	// fake signal; with no crowd data at all the ensemble stands alone.
	signal := h.social.Score(ctx, headline)
	socialFake := 0.0
	if signal.Enabled {
		socialFake = signal.FakeProbability
	}
	ew, tw := ensembleWeight, twitterWeight
	var twitterScore float64
	vm := vr.Mentions.VerifiedMentions
	switch {
	case vm >= 3:
		twitterScore = maxf(0, socialFake-0.4)
	case vm >= 1:
		twitterScore = maxf(0, socialFake-0.2)
	case socialFake > 0:
		twitterScore = socialFake
	default:
		ew, tw = 1, 0
	}
	fakeProb = minf(1, ew*fakeProb+tw*twitterScore)

	// Calibration: agreement between detectors raises confidence,
	// disagreement lowers it, and independent verification backs a
	// REAL verdict.
	conf := fakeProb
	if rawLabel != "FAKE" {
		conf = 1 - fakeProb
	}
	var preds []string
	for _, k := range []string{"nlp", "transformer"} {
		if cr, ok := components[k]; ok {
			preds = append(preds, cr.Prediction)
		}
	}
	if len(preds) > 0 && allEqual(preds, rawLabel) {
		conf = minf(conf*1.08, 1)
	}
	if len(preds) >= 2 && !allEqual(preds, preds[0]) {
		conf *= 0.88
	}
	if vr.Verified && rawLabel == "REAL" {
		conf = minf(conf*1.05, 1)
	}

	final := rawLabel
	if conf < decisionThreshold {
		final = "UNVERIFIED"
	}
	method := "weighted_fallback"
	if h.model.Trained() {
		method = "learned_ensemble"
	}

	predictionID := uuid.NewString()
	if h.store != nil {
		vrJSON, _ := json.Marshal(vr)
		ccJSON, _ := json.Marshal(claimChecks)
		compJSON, _ := json.Marshal(components)
		fvJSON, _ := json.Marshal(fv)
		if err := h.store.SavePrediction(&types.Prediction{
			ID:              predictionID,
			UserID:          userID,
			Headline:        headline,
			Verdict:         final,
			Confidence:      conf,
			FakeProbability: fakeProb,
			Method:          method,
			FeatureVector:   string(fvJSON),
			Verification:    string(vrJSON),
			ClaimChecks:     string(ccJSON),
			Components:      string(compJSON),
			CreatedAt:       time.Now(),
		}); err != nil {
			log.Printf("predict: could not save prediction: %v", err)
		}
	}

	h.quiz.MaybeAdd(headline, final, conf, fv, candidateExplanation(final, components))

	featureMap := make(map[string]float64, ensemble.NumFeatures)
	for i, name := range ensemble.FeatureNames {
		featureMap[name] = round4(fv[i])
	}

	resp := gin.H{
		"prediction_id":    predictionID,
		"prediction":       final,
		"confidence":       round4(conf),
		"fake_probability": round4(fakeProb),
		"method":           method,
		"source_verification": gin.H{
			"verified":         vr.Verified,
			"sources_found":    vr.SourcesFound,
			"trusted_sources":  topSources(vr.TrustedSources, 3),
			"credibility_tier": vr.Tier,
			"explanation":      vr.Explanation,
			"twitter_verified": vr.Mentions.VerifiedMentions,
			"fact_checked":     vr.FactCheck.Found,
		},
		"claim_verification": claimChecks,
		"ensemble_features":  featureMap,
		"component_results":  components,
		"social_signal": gin.H{
			"enabled":                 signal.Enabled,
			"social_fake_probability": round4(socialFake),
			"evidence":                signal.Evidence,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if urlCred != nil {
		resp["url_credibility"] = urlCred
	}
	c.JSON(http.StatusOK, resp)
}

// candidateExplanation builds the reader-facing rationale stored with a
// quiz candidate.
func candidateExplanation(verdict string, components map[string]componentResult) string {
	var parts []string
	if nlpRes, ok := components["nlp"]; ok && nlpRes.Confidence > 0.75 {
		parts = append(parts, fmt.Sprintf("NLP analysis found this %s with %.0f%% confidence",
			strings.ToLower(nlpRes.Prediction), nlpRes.Confidence*100))
	}
	if tr, ok := components["transformer"]; ok && tr.Confidence > 0.75 {
		parts = append(parts, fmt.Sprintf("AI transformer model classified it as %s (%.0f%% confidence)",
			strings.ToLower(tr.Prediction), tr.Confidence*100))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Our ensemble model detected this as %s with high confidence.",
			strings.ToLower(verdict))
	}
	return strings.Join(parts, ". ")
}

func topSources(arts []verifier.Article, n int) []verifier.Article {
	if len(arts) > n {
		return arts[:n]
	}
	return arts
}

func allEqual(preds []string, want string) bool {
	for _, p := range preds {
		if p != want {
			return false
		}
	}
	return true
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
