package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veritas-ai/veritas-api/src/api/data"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

const newsCacheTTL = time.Hour

// Reputable outlet names used to filter the raw headline feed.
var reputableOutlets = []string{
	"bbc", "reuters", "associated press", "wall street journal", "cnn",
	"washington post", "new york times", "bloomberg", "abc news",
	"cbs news", "nbc news", "usa today", "time", "guardian",
	"independent", "financial times", "axios", "politico", "the hill",
	"npr", "pbs",
}

var newsCategories = map[string]string{
	"world": "general", "technology": "technology", "business": "business",
	"science": "science", "health": "health", "entertainment": "entertainment",
	"sports": "sports", "general": "general",
}

type newsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type News struct {
	store  *data.Store
	apiKey string
	client *http.Client
}

func NewNews(d Deps) News {
	return News{
		store:  d.Store,
		apiKey: d.Cfg.NewsAPIKey,
		client: &http.Client{Timeout: 8 * time.Second},
	}
}

func (h News) Topic(c *gin.Context) {
	topic := strings.ToLower(c.DefaultQuery("topic", "general"))
	articles, cached := h.cachedNews(c.Request.Context(), topic)
	c.JSON(http.StatusOK, gin.H{"articles": articles, "cached": cached, "topic": topic})
}

func (h News) Trending(c *gin.Context) {
	articles, _ := h.cachedNews(c.Request.Context(), "general")
	if len(articles) > 5 {
		articles = articles[:5]
	}
	c.JSON(http.StatusOK, gin.H{"trending": articles})
}

// cachedNews serves the per-topic feed through the durable cache,
// fetching from the headline provider on a miss. The second return
// value reports a cache hit.
func (h News) cachedNews(ctx context.Context, topic string) ([]newsArticle, bool) {
	if h.store != nil {
		entry, err := h.store.GetNews(topic)
		if err != nil {
			log.Printf("news: cache read failed: %v", err)
		} else if entry != nil && entry.ExpiresAt.After(time.Now()) {
			var articles []newsArticle
			if json.Unmarshal([]byte(entry.Articles), &articles) == nil {
				return articles, true
			}
		}
	}

	articles, err := h.fetch(ctx, topic)
	if err != nil {
		log.Printf("news: fetch failed: %v", err)
		return []newsArticle{}, false
	}
	if h.store != nil {
		raw, _ := json.Marshal(articles)
		if err := h.store.PutNews(&types.NewsEntry{
			Topic:     topic,
			Articles:  string(raw),
			CachedAt:  time.Now(),
			ExpiresAt: time.Now().Add(newsCacheTTL),
		}); err != nil {
			log.Printf("news: cache write failed: %v", err)
		}
	}
	return articles, false
}

func (h News) fetch(ctx context.Context, topic string) ([]newsArticle, error) {
	if h.apiKey == "" {
		return []newsArticle{}, nil
	}
	category, ok := newsCategories[topic]
	if !ok {
		category = "general"
	}

	q := url.Values{}
	q.Set("category", category)
	q.Set("language", "en")
	q.Set("pageSize", "50")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://newsapi.org/v2/top-headlines?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi status %d", resp.StatusCode)
	}

	var body struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var all, reputable []newsArticle
	for _, a := range body.Articles {
		if a.Title == "" || a.Description == "" {
			continue
		}
		art := newsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		}
		all = append(all, art)
		name := strings.ToLower(a.Source.Name)
		for _, outlet := range reputableOutlets {
			if strings.Contains(name, outlet) {
				reputable = append(reputable, art)
				break
			}
		}
	}

	final := reputable
	if len(final) == 0 {
		final = all
	}
	if len(final) > 15 {
		final = final[:15]
	}
	if final == nil {
		final = []newsArticle{}
	}
	return final, nil
}
