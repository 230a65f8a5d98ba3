package webserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
)

type Verify struct {
	verifier *verifier.Service
}

func NewVerify(d Deps) Verify {
	return Verify{verifier: d.Verifier}
}

func (h Verify) URL(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "url required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":         url,
		"credibility": verifier.ClassifyURL(url),
	})
}

func (h Verify) CompareSources(c *gin.Context) {
	var req struct {
		Headline string `json:"headline"`
		Text     string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	headline := strings.TrimSpace(req.Headline)
	if headline == "" {
		headline = strings.TrimSpace(req.Text)
	}
	if headline == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "headline required"})
		return
	}

	vr, err := h.verifier.Verify(c.Request.Context(), headline)
	if err != nil {
		log.Printf("compare-sources: verification failed: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"headline":             headline,
		"sources_found":        vr.SourcesFound,
		"trusted_sources":      vr.TrustedSources,
		"credibility_tier":     vr.Tier,
		"explanation":          vr.Explanation,
		"twitter_verification": vr.Mentions,
		"fact_check":           vr.FactCheck,
	})
}
