package webserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/config"
	"github.com/veritas-ai/veritas-api/src/api/data"
)

const serviceVersion = "4.1.0"

type Health struct {
	cfg         config.Config
	store       *data.Store
	model       *ensemble.Model
	transformer *nlp.TransformerClient
	chatEnabled bool
}

func NewHealth(d Deps) Health {
	return Health{
		cfg:         d.Cfg,
		store:       d.Store,
		model:       d.Model,
		transformer: d.Transformer,
		chatEnabled: d.Chat != nil,
	}
}

func (h Health) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Veritas AI - Professional Fake News Detector",
		"version": serviceVersion,
		"status":  "operational",
		"features": gin.H{
			"learned_ensemble":     h.model.Trained(),
			"transformer_models":   h.transformer != nil,
			"nlp_analysis":         true,
			"source_verification":  true,
			"twitter_verification": h.cfg.TwitterBearerToken != "",
			"news_api":             h.cfg.NewsAPIKey != "",
			"google_search":        h.cfg.GoogleAPIKey != "",
			"openai":               h.chatEnabled,
			"online_learning":      true,
			"claim_extraction":     true,
		},
	})
}

func (h Health) Check(c *gin.Context) {
	dbStatus := "connected"
	var predictions int64
	if _, total, err := h.store.VerdictCounts(""); err != nil {
		dbStatus = "error: " + err.Error()
	} else {
		predictions = total
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database": gin.H{
			"type":   "MySQL",
			"status": dbStatus,
			"stats":  gin.H{"predictions": predictions},
		},
		"services": gin.H{
			"learned_ensemble": h.model.Trained(),
			"transformers":     h.transformer != nil,
			"nlp":              true,
			"twitter":          h.cfg.TwitterBearerToken != "",
			"newsapi":          h.cfg.NewsAPIKey != "",
			"google":           h.cfg.GoogleAPIKey != "",
			"openai":           h.chatEnabled,
		},
	})
}
