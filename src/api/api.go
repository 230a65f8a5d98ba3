package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
	"github.com/veritas-ai/veritas-api/src/api/components/social"
	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
	"github.com/veritas-ai/veritas-api/src/api/config"
	"github.com/veritas-ai/veritas-api/src/api/data"
	"github.com/veritas-ai/veritas-api/src/api/db"
	"github.com/veritas-ai/veritas-api/src/api/webserver"
)

func main() {
	cfg := config.Load()

	gdb := db.MustMySQL(cfg.MySQLDSN)
	rdb := db.MustRedis(cfg.RedisURL)

	store := data.NewStore(gdb)
	events := data.NewPublisher(rdb)

	// External providers. Each constructor returns nil when its keys
	// are missing and the pipeline degrades around it.
	var factCheck verifier.FactChecker
	if fc := verifier.NewGoogleFactCheck(cfg.GoogleAPIKey, cfg.GoogleSearchCX); fc != nil {
		factCheck = fc
	}
	var web verifier.WebSearcher
	if ws := verifier.NewGoogleWebSearch(cfg.GoogleAPIKey, cfg.GoogleSearchCX); ws != nil {
		web = ws
	}
	var news verifier.NewsSearcher
	if na := verifier.NewNewsAPI(cfg.NewsAPIKey); na != nil {
		news = na
	}
	var mentions verifier.MentionChecker
	if tm := verifier.NewTwitterMentions(cfg.TwitterBearerToken); tm != nil {
		mentions = tm
	}
	verifySvc := verifier.New(store, factCheck, news, mentions, web)

	var reactions social.ReactionSource
	if ts := social.NewTwitterSource(cfg.TwitterBearerToken); ts != nil {
		reactions = ts
	}
	socialScorer := social.NewScorer(reactions, store)

	model := ensemble.New(store)
	pool := quiz.NewPool(store, model, events)

	var chat *openai.Client
	if cfg.OpenAIKey != "" {
		chat = openai.NewClient(cfg.OpenAIKey)
	}

	router := webserver.New(webserver.Deps{
		Cfg:         cfg,
		Store:       store,
		Events:      events,
		Verifier:    verifySvc,
		Social:      socialScorer,
		Detector:    nlp.NewDetector(),
		Transformer: nlp.NewTransformerClient(cfg.TransformerURL),
		Model:       model,
		Quiz:        pool,
		Chat:        chat,
	})

	ctx, cancel := context.WithCancel(context.Background())

	// Per-method performance estimate stays warm in the background.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		model.RefreshPerformance()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				model.RefreshPerformance()
			}
		}
	}()

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("Veritas API listening on %s (ensemble trained: %v)", cfg.Port, model.Trained())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
