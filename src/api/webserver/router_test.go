package webserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
	"github.com/veritas-ai/veritas-api/src/api/components/social"
	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
	"github.com/veritas-ai/veritas-api/src/api/config"
	"github.com/veritas-ai/veritas-api/src/api/middleware"
)

const testSecret = "test-secret"

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Deps{
		Cfg: config.Config{
			JWTSecret:   testSecret,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Verifier: verifier.New(nil, nil, nil, nil, nil),
		Social:   social.NewScorer(nil, nil),
		Detector: nlp.NewDetector(),
		Model:    ensemble.New(nil),
		Quiz:     quiz.NewPool(nil, nil, nil),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPredictRejectsEmptyBody(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/predict", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["err"], "missing headline")
}

func TestPredictRejectsOversizedInput(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/predict",
		gin.H{"headline": strings.Repeat("a", 10001)}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["err"], "too long")
}

func TestPredictSatireShortCircuit(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/predict", gin.H{
		"headline":   "Area man discovers something",
		"source_url": "https://www.theonion.com/some-story",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "SATIRE", body["prediction"])
	assert.InDelta(t, 0.99, body["confidence"].(float64), 1e-9)
	assert.Equal(t, "url_credibility", body["method"])
}

func TestFeedbackRequiresAuth(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/feedback",
		gin.H{"prediction_id": "p1", "correct_label": "FAKE"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedbackValidation(t *testing.T) {
	r := testRouter()
	token := signToken(t, "user-1")

	w := doJSON(t, r, http.MethodPost, "/api/feedback",
		gin.H{"correct_label": "FAKE"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["err"], "prediction_id")

	w = doJSON(t, r, http.MethodPost, "/api/feedback",
		gin.H{"prediction_id": "p1", "correct_label": "MAYBE"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["err"], "REAL or FAKE")
}

func TestRetrainWithoutFeedbackLog(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/admin/retrain", nil, signToken(t, "admin"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["retrained"])
}

func TestQuizQuestionsFallsBackToStatic(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/quiz/questions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "static", body["source"])
	assert.Equal(t, false, body["personalised"])
	assert.NotZero(t, body["count"])
}

func TestQuizLeaderboardAndPoolStatsWithoutStore(t *testing.T) {
	r := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/quiz/leaderboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["leaderboard"])

	req = httptest.NewRequest(http.MethodGet, "/api/quiz/pool-stats", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["totalCandidates"])
}

func TestQuizSubmitValidation(t *testing.T) {
	r := testRouter()

	w := doJSON(t, r, http.MethodPost, "/api/quiz/submit",
		gin.H{"question_id": "q1", "answer": "MAYBE"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/quiz/submit",
		gin.H{"question_id": "no-such-question", "answer": "REAL"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizSubmitStaticQuestion(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/quiz/submit",
		gin.H{"question_id": "q2", "answer": "FAKE"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["is_correct"])
	assert.Equal(t, "FAKE", body["correct_answer"])
	assert.Equal(t, float64(10), body["points_earned"])
}

func TestVerifyURLValidation(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/verify-url", gin.H{"url": "  "}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyURLClassification(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/verify-url",
		gin.H{"url": "https://www.reuters.com/world"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	cred := body["credibility"].(map[string]any)
	assert.Equal(t, "high", cred["credibility"])
}

func TestCompareSourcesValidation(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/compare-sources", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatbotUnavailableWithoutKey(t *testing.T) {
	r := testRouter()
	w := doJSON(t, r, http.MethodPost, "/api/chatbot/message",
		gin.H{"message": "how do I spot fake news?"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestChatbotScenarios(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/chatbot/scenarios", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["scenarios"])
}

func TestHomeReportsFeatureFlags(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "4.1.0", body["version"])
	features := body["features"].(map[string]any)
	assert.Equal(t, false, features["learned_ensemble"])
	assert.Equal(t, true, features["online_learning"])
}

func TestRateLimitKeyedByUserAfterAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.OptionalJWT([]byte(testSecret)), RateLimit(NewRateLimiter(1, time.Minute)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// Two users behind the same IP each get their own window.
	alice, bob := signToken(t, "alice"), signToken(t, "bob")
	assert.Equal(t, http.StatusOK, hit(alice))
	assert.Equal(t, http.StatusOK, hit(bob))
	assert.Equal(t, http.StatusTooManyRequests, hit(alice))
	assert.Equal(t, http.StatusOK, hit(""))
}

func TestRateLimiterBlocksAfterWindowFills(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("client"))
	}
	assert.False(t, rl.Allow("client"))
	assert.True(t, rl.Allow("other-client"))
}
