package webserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/data"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

type Feedback struct {
	store  *data.Store
	events *data.Publisher
	model  *ensemble.Model
}

func NewFeedback(d Deps) Feedback {
	return Feedback{store: d.Store, events: d.Events, model: d.Model}
}

// Submit applies a user correction to the stored prediction's feature
// vector as an online training sample.
func (h Feedback) Submit(c *gin.Context) {
	var req struct {
		PredictionID string `json:"prediction_id"`
		CorrectLabel string `json:"correct_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	pid := strings.TrimSpace(req.PredictionID)
	if pid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "prediction_id required"})
		return
	}
	label := strings.ToUpper(strings.TrimSpace(req.CorrectLabel))
	if label != "REAL" && label != "FAKE" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "correct_label must be REAL or FAKE"})
		return
	}

	pred, err := h.store.Prediction(pid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "lookup failed"})
		return
	}
	if pred == nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "prediction not found"})
		return
	}

	var fv []float64
	if err := json.Unmarshal([]byte(pred.FeatureVector), &fv); err != nil || len(fv) != ensemble.NumFeatures {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": "feature vector missing in stored prediction"})
		return
	}

	numLabel := ensemble.LabelReal
	if label == "FAKE" {
		numLabel = ensemble.LabelFake
	}
	if err := h.model.UpdateFromFeedback(fv, numLabel, "user", pid); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"err": err.Error()})
		return
	}
	h.events.FeedbackReceived(pid, label, "user")

	c.JSON(http.StatusOK, gin.H{
		"message":         "feedback received - ensemble updated",
		"online_learning": true,
	})
}

// Retrain triggers a full batch refit from the accumulated feedback
// log.
func (h Feedback) Retrain(c *gin.Context) {
	ok, err := h.model.RetrainFromFeedback()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"retrained": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"retrained": true})
}

// Report flags content, and when the reporter supplies a corrected
// label for an existing prediction, that correction also feeds the
// ensemble.
func (h Feedback) Report(c *gin.Context) {
	var req struct {
		Content      string `json:"content"`
		Headline     string `json:"headline"`
		Reason       string `json:"reason"`
		PredictionID string `json:"prediction_id"`
		CorrectLabel string `json:"correct_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = strings.TrimSpace(req.Headline)
	}
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "content required"})
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "unspecified"
	}

	if err := h.store.SaveReport(&types.Report{
		UserID:    c.GetString("uid"),
		Content:   content,
		Reason:    reason,
		CreatedAt: time.Now(),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "report failed"})
		return
	}

	label := strings.ToUpper(strings.TrimSpace(req.CorrectLabel))
	if (label == "REAL" || label == "FAKE") && req.PredictionID != "" {
		if pred, err := h.store.Prediction(req.PredictionID); err == nil && pred != nil {
			var fv []float64
			if json.Unmarshal([]byte(pred.FeatureVector), &fv) == nil && len(fv) == ensemble.NumFeatures {
				numLabel := ensemble.LabelReal
				if label == "FAKE" {
					numLabel = ensemble.LabelFake
				}
				if h.model.UpdateFromFeedback(fv, numLabel, "report", pred.ID) == nil {
					h.events.FeedbackReceived(pred.ID, label, "report")
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "report submitted"})
}
