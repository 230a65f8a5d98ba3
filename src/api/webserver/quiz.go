package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
)

type Quiz struct {
	pool *quiz.Pool
}

func NewQuiz(d Deps) Quiz {
	return Quiz{pool: d.Quiz}
}

func (h Quiz) Questions(c *gin.Context) {
	userID := c.GetString("uid")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	difficulty := c.DefaultQuery("difficulty", "mixed")

	questions, source, err := h.pool.SelectQuestions(userID, limit, difficulty)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "question selection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions":    questions,
		"count":        len(questions),
		"personalised": userID != "",
		"source":       source,
	})
}

func (h Quiz) Submit(c *gin.Context) {
	var req struct {
		QuestionID  string `json:"question_id"`
		CandidateID string `json:"candidate_id"`
		Answer      string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	res, err := h.pool.SubmitAnswer(c.GetString("uid"), req.QuestionID, req.CandidateID, req.Answer)
	switch {
	case errors.Is(err, quiz.ErrBadAnswer):
		c.JSON(http.StatusBadRequest, gin.H{"err": "question_id and valid answer (REAL|FAKE) required"})
		return
	case errors.Is(err, quiz.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "question not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"err": "submit failed"})
		return
	}

	note := "This is a curated example question."
	if res.FromPool {
		note = "This question was generated from a real headline analysed by Veritas AI."
	}
	c.JSON(http.StatusOK, gin.H{
		"is_correct":       res.Correct,
		"correct_answer":   res.CorrectAnswer,
		"points_earned":    res.Points,
		"explanation":      res.Explanation,
		"topic":            res.Topic,
		"educational_note": note,
	})
}

func (h Quiz) UserStats(c *gin.Context) {
	summary, err := h.pool.Stats(c.GetString("uid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "stats lookup failed"})
		return
	}
	if summary == nil {
		summary = &quiz.UserSummary{TopicAccuracy: map[string]float64{}}
	}
	c.JSON(http.StatusOK, summary)
}

func (h Quiz) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	board, err := h.pool.Leaderboard(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "leaderboard failed"})
		return
	}
	entries := make([]gin.H, 0, len(board))
	for _, s := range board {
		entries = append(entries, gin.H{
			"userId":         s.UserID,
			"totalPoints":    s.TotalPoints,
			"correctAnswers": s.CorrectAnswers,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h Quiz) PoolStats(c *gin.Context) {
	stats, err := h.pool.PoolStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "pool stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
