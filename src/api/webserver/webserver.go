package webserver

import (
	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
	"github.com/veritas-ai/veritas-api/src/api/components/social"
	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
	"github.com/veritas-ai/veritas-api/src/api/config"
	"github.com/veritas-ai/veritas-api/src/api/data"
)

// Deps carries everything the handlers need. Transformer and Chat may
// be nil when their services are not configured.
type Deps struct {
	Cfg         config.Config
	Store       *data.Store
	Events      *data.Publisher
	Verifier    *verifier.Service
	Social      *social.Scorer
	Detector    *nlp.Detector
	Transformer *nlp.TransformerClient
	Model       *ensemble.Model
	Quiz        *quiz.Pool
	Chat        *openai.Client
}

func New(d Deps) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, d)
	return g
}
