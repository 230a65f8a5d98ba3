package db

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/veritas-ai/veritas-api/src/api/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := db.AutoMigrate(
		&types.VerificationEntry{},
		&types.SocialEntry{},
		&types.Prediction{},
		&types.FeedbackSample{},
		&types.ModelSnapshot{},
		&types.QuizCandidate{},
		&types.QuizResponse{},
		&types.QuizAttempt{},
		&types.UserStat{},
		&types.TopicStat{},
		&types.Report{},
		&types.NewsEntry{},
	); err != nil {
		log.Fatalf("mysql migrate: %v", err)
	}
	return db
}

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}
