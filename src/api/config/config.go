package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	MySQLDSN  string
	RedisURL  string
	JWTSecret string
	Port      string

	// External signal providers. Any of these may be empty, in which
	// case the matching capability is absent and the pipeline degrades.
	NewsAPIKey         string
	TwitterBearerToken string
	GoogleAPIKey       string
	GoogleSearchCX     string
	TransformerURL     string
	OpenAIKey          string

	CORSOrigins []string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	origins := strings.Split(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	return Config{
		MySQLDSN:           getenv("MYSQL_DSN", "veritas:veritas@tcp(127.0.0.1:3306)/veritas"),
		RedisURL:           getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		JWTSecret:          getenv("JWT_SECRET", ""),
		Port:               getenv("PORT", "8000"),
		NewsAPIKey:         os.Getenv("NEWSAPI_KEY"),
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		GoogleAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GoogleSearchCX:     os.Getenv("GOOGLE_SEARCH_CX"),
		TransformerURL:     os.Getenv("TRANSFORMER_URL"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		CORSOrigins:        origins,
	}
}
