package types

import "time"

// Durable layer of the claim verification cache. Result holds the
// JSON-encoded verifier.Record; rows are upserted by key and expire
// lazily (filtered at read, never reaped).
type VerificationEntry struct {
	Key       string `gorm:"primaryKey;size:16"`
	Headline  string `gorm:"size:500"`
	Result    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// Durable layer of the social signal cache. Shorter TTL than the
// verification cache since social sentiment decays fast.
type SocialEntry struct {
	Key       string `gorm:"primaryKey;size:16"`
	Result    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// One verdict produced by the predict pipeline. FeatureVector is kept
// so later corrections can be replayed into the ensemble.
type Prediction struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"size:64;index"`
	Headline        string `gorm:"size:500;not null"`
	Verdict         string `gorm:"size:16;not null"`
	Confidence      float64
	FakeProbability float64
	Method          string    `gorm:"size:32"`
	FeatureVector   string    `gorm:"type:text"`
	Verification    string    `gorm:"type:text"`
	ClaimChecks     string    `gorm:"type:text"`
	Components      string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"index"`
}

// Accumulated training log for the ensemble. Label is 0 for REAL and
// 1 for FAKE. Source records which channel produced the sample
// (user correction, report, or quiz consensus).
type FeedbackSample struct {
	ID           uint64 `gorm:"primaryKey"`
	Features     string `gorm:"type:text;not null"`
	Label        int    `gorm:"not null"`
	Source       string `gorm:"size:16"`
	PredictionID string `gorm:"size:36"`
	CreatedAt    time.Time
}

// Persisted ensemble model parameters. A single row (ID 1) is
// overwritten on every successful mutation.
type ModelSnapshot struct {
	ID        uint8  `gorm:"primaryKey"`
	Params    string `gorm:"type:text;not null"`
	Samples   int
	UpdatedAt time.Time
}

// A high-confidence verdict promoted into the quiz pool. ConsensusLabel
// is set at most once, by a conditional update, when enough independent
// answers agree.
type QuizCandidate struct {
	ID             string `gorm:"primaryKey;size:36"`
	Headline       string `gorm:"size:500;not null;index"`
	Verdict        string `gorm:"size:8;not null"`
	Confidence     float64
	Topic          string  `gorm:"size:32;index"`
	FeatureVector  string  `gorm:"type:text"`
	Explanation    string  `gorm:"type:text"`
	UsedCount      int     `gorm:"default:0"`
	ConsensusLabel *string `gorm:"size:8"`
	ConsensusAt    *time.Time
	CreatedAt      time.Time
	ExpiresAt      time.Time `gorm:"index"`
}

// One respondent's vote on a candidate.
type QuizResponse struct {
	ID          uint64 `gorm:"primaryKey"`
	CandidateID string `gorm:"size:36;index;not null"`
	UserID      string `gorm:"size:64"`
	Answer      string `gorm:"size:8;not null"`
	Correct     bool
	CreatedAt   time.Time
}

// Answer log for any served question, candidate or static.
// CandidateID is empty for static questions.
type QuizAttempt struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      string `gorm:"size:64;index"`
	QuestionID  string `gorm:"size:36;not null"`
	CandidateID string `gorm:"size:36"`
	Topic       string `gorm:"size:32"`
	Answer      string `gorm:"size:8"`
	Correct     bool
	Points      int
	CreatedAt   time.Time
}

type UserStat struct {
	UserID         string `gorm:"primaryKey;size:64"`
	TotalPoints    int
	TotalAttempts  int
	CorrectAnswers int
	UpdatedAt      time.Time
}

type TopicStat struct {
	UserID   string `gorm:"primaryKey;size:64"`
	Topic    string `gorm:"primaryKey;size:32"`
	Attempts int
	Correct  int
}

// User-flagged content.
type Report struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    string `gorm:"size:64"`
	Content   string `gorm:"type:text;not null"`
	Reason    string `gorm:"size:255"`
	CreatedAt time.Time
}

// Cached headline feed per topic.
type NewsEntry struct {
	Topic     string `gorm:"primaryKey;size:32"`
	Articles  string `gorm:"type:text"`
	CachedAt  time.Time
	ExpiresAt time.Time
}
