package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/middleware"
)

func attachRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(d.Cfg.JWTSecret)
	limiter := NewRateLimiter(60, time.Minute)

	predictH := NewPredict(d)
	feedbackH := NewFeedback(d)
	quizH := NewQuiz(d)
	verifyH := NewVerify(d)
	historyH := NewHistory(d)
	newsH := NewNews(d)
	chatH := NewChatbot(d)
	healthH := NewHealth(d)

	r.GET("/", healthH.Home)

	api := r.Group("/api")
	{
		api.GET("/health", healthH.Check)

		// The limiter runs after identity resolution so authenticated
		// traffic is keyed per user, not per shared IP.
		open := api.Group("")
		open.Use(middleware.OptionalJWT(secret), RateLimit(limiter))
		{
			open.POST("/predict", predictH.Predict)
			open.POST("/verify-url", verifyH.URL)
			open.POST("/compare-sources", verifyH.CompareSources)
			open.GET("/stats", historyH.Stats)
			open.GET("/news", newsH.Topic)
			open.GET("/trending", newsH.Trending)
			open.POST("/report", feedbackH.Report)
			open.GET("/quiz/questions", quizH.Questions)
			open.POST("/quiz/submit", quizH.Submit)
			open.GET("/quiz/leaderboard", quizH.Leaderboard)
			open.GET("/quiz/pool-stats", quizH.PoolStats)
			open.POST("/chatbot/message", chatH.Message)
			open.GET("/chatbot/scenarios", chatH.Scenarios)
		}

		secured := api.Group("")
		secured.Use(middleware.JWT(secret), RateLimit(limiter))
		{
			secured.POST("/feedback", feedbackH.Submit)
			secured.GET("/history", historyH.History)
			secured.GET("/quiz/user-stats", quizH.UserStats)
			secured.POST("/admin/retrain", feedbackH.Retrain)
		}
	}
}
