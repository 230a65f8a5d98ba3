package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/data"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

type History struct {
	store *data.Store
}

func NewHistory(d Deps) History {
	return History{store: d.Store}
}

func (h History) History(c *gin.Context) {
	userID := c.GetString("uid")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	preds, total, err := h.store.UserHistory(userID, (page-1)*limit, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "history lookup failed"})
		return
	}

	items := make([]gin.H, 0, len(preds))
	for _, p := range preds {
		items = append(items, historyItem(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"history": items,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// historyItem shapes one stored prediction for the history feed. The
// raw feature vector stays internal.
func historyItem(p types.Prediction) gin.H {
	var verification, claims json.RawMessage
	if p.Verification != "" {
		verification = json.RawMessage(p.Verification)
	}
	if p.ClaimChecks != "" {
		claims = json.RawMessage(p.ClaimChecks)
	}
	return gin.H{
		"prediction_id":       p.ID,
		"headline":            p.Headline,
		"prediction":          p.Verdict,
		"confidence":          p.Confidence,
		"method":              p.Method,
		"source_verification": verification,
		"claim_verification":  claims,
		"timestamp":           p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Stats reports verdict counts, scoped to the caller when a token is
// present.
func (h History) Stats(c *gin.Context) {
	counts, total, err := h.store.VerdictCounts(c.GetString("uid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "stats lookup failed"})
		return
	}
	fakeRatio := 0.0
	if total > 0 {
		fakeRatio = float64(int(float64(counts["FAKE"])/float64(total)*1000+0.5)) / 1000
	}
	c.JSON(http.StatusOK, gin.H{
		"total":      total,
		"fake":       counts["FAKE"],
		"real":       counts["REAL"],
		"unverified": counts["UNVERIFIED"],
		"fake_ratio": fakeRatio,
	})
}
