package webserver

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
)

const chatSystemPrompt = "You are Veritas, an expert AI assistant specialising in media literacy " +
	"and fake-news detection. Help users verify claims and think critically " +
	"about news sources. Be concise, factual, and educational."

type Chatbot struct {
	client *openai.Client
}

func NewChatbot(d Deps) Chatbot {
	return Chatbot{client: d.Chat}
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h Chatbot) Message(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"err":      "OpenAI not configured",
			"response": "AI chatbot unavailable.",
		})
		return
	}
	var req struct {
		Message string     `json:"message"`
		History []chatTurn `json:"history"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "message required"})
		return
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
	}
	history := req.History
	if len(history) > 6 {
		history = history[len(history)-6:]
	}
	for _, t := range history {
		if t.Role == openai.ChatMessageRoleUser || t.Role == openai.ChatMessageRoleAssistant {
			messages = append(messages, openai.ChatCompletionMessage{Role: t.Role, Content: t.Content})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := h.client.CreateChatCompletion(c.Request.Context(), openai.ChatCompletionRequest{
		Model:       openai.GPT3Dot5Turbo,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil || len(resp.Choices) == 0 {
		log.Printf("chatbot: completion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"err":      "chatbot error",
			"response": "An error occurred. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": strings.TrimSpace(resp.Choices[0].Message.Content),
		"model":    openai.GPT3Dot5Turbo,
	})
}

func (h Chatbot) Scenarios(c *gin.Context) {
	scenarios := []gin.H{
		{
			"id":       1,
			"title":    "Viral Social Media Post",
			"scenario": `A post claims "Scientists confirm 5G causes COVID-19!" with 50K shares.`,
			"steps":    []string{"Check the source", "Find the original study", "Cross-reference fact-checkers", "Check scientific consensus"},
			"redFlags": []string{"Sensational claim", "No source cited", "Contradicts science"},
			"verdict":  "FAKE",
		},
		{
			"id":       2,
			"title":    "Breaking News Alert",
			"scenario": "BREAKING: Major policy change announced by government!",
			"steps":    []string{"Check multiple outlets", "Look for official sources", "Verify with independent sources"},
			"redFlags": []string{"Only one source", "No official confirmation", "Vague details"},
			"verdict":  "UNVERIFIED",
		},
		{
			"id":       3,
			"title":    "Emotional Story",
			"scenario": "Elderly woman loses life savings to scam - share to warn others!",
			"steps":    []string{"Verify with local news", "Look for specific details", "Be cautious of share requests"},
			"redFlags": []string{"Emotional manipulation", "Requests for shares", "Vague details"},
			"verdict":  "SUSPICIOUS",
		},
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": scenarios, "count": len(scenarios)})
}
