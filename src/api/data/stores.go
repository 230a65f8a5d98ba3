package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veritas-ai/veritas-api/src/api/components/quiz"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

// Store is the MySQL-backed durable layer behind every component. It
// satisfies the narrow store interfaces the components declare, so
// each component only sees the queries it needs.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- verification cache ---

func (s *Store) GetVerification(key string) (*types.VerificationEntry, error) {
	var e types.VerificationEntry
	err := s.db.Where("`key` = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) PutVerification(entry *types.VerificationEntry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(entry).Error
}

// --- social signal cache ---

func (s *Store) GetSocial(key string) (*types.SocialEntry, error) {
	var e types.SocialEntry
	err := s.db.Where("`key` = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) PutSocial(entry *types.SocialEntry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(entry).Error
}

// --- ensemble model persistence ---

func (s *Store) SaveModel(snapshot *types.ModelSnapshot) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(snapshot).Error
}

func (s *Store) LoadModel() (*types.ModelSnapshot, error) {
	var snap types.ModelSnapshot
	err := s.db.First(&snap, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) AppendFeedback(sample *types.FeedbackSample) error {
	return s.db.Create(sample).Error
}

func (s *Store) ListFeedback() ([]types.FeedbackSample, error) {
	var samples []types.FeedbackSample
	err := s.db.Order("id").Find(&samples).Error
	return samples, err
}

func (s *Store) RecentPredictions(limit int) ([]types.Prediction, error) {
	var preds []types.Prediction
	err := s.db.Order("created_at DESC").Limit(limit).Find(&preds).Error
	return preds, err
}

// --- prediction history ---

func (s *Store) SavePrediction(p *types.Prediction) error {
	return s.db.Create(p).Error
}

func (s *Store) Prediction(id string) (*types.Prediction, error) {
	var p types.Prediction
	err := s.db.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UserHistory(userID string, offset, limit int) ([]types.Prediction, int64, error) {
	var total int64
	if err := s.db.Model(&types.Prediction{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var preds []types.Prediction
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&preds).Error
	return preds, total, err
}

// VerdictCounts aggregates stored verdicts for the stats endpoint. An
// empty userID aggregates across all users.
func (s *Store) VerdictCounts(userID string) (map[string]int64, int64, error) {
	type row struct {
		Verdict string
		N       int64
	}
	q := s.db.Model(&types.Prediction{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var rows []row
	err := q.Select("verdict, count(*) as n").Group("verdict").Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int64, len(rows))
	var total int64
	for _, r := range rows {
		out[r.Verdict] = r.N
		total += r.N
	}
	return out, total, nil
}

// --- quiz pool ---

func (s *Store) FindFreshByHeadline(headline string, since time.Time) (*types.QuizCandidate, error) {
	var c types.QuizCandidate
	err := s.db.Where("headline = ? AND created_at >= ?", headline, since).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) InsertCandidate(c *types.QuizCandidate) error {
	return s.db.Create(c).Error
}

func (s *Store) Candidate(id string) (*types.QuizCandidate, error) {
	var c types.QuizCandidate
	err := s.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// EligibleCandidates applies lazy expiry: expired rows are filtered at
// read time, never eagerly deleted.
func (s *Store) EligibleCandidates(f quiz.CandidateFilter) ([]types.QuizCandidate, error) {
	q := s.db.Where("expires_at > ?", time.Now()).
		Where("verdict IN ?", []string{"REAL", "FAKE"})
	if f.Topic != "" {
		q = q.Where("topic = ?", f.Topic)
	}
	if f.MinConfidence > 0 {
		q = q.Where("confidence >= ?", f.MinConfidence)
	}
	if f.MaxConfidence > 0 {
		q = q.Where("confidence < ?", f.MaxConfidence)
	}
	if len(f.Exclude) > 0 {
		q = q.Where("id NOT IN ?", f.Exclude)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []types.QuizCandidate
	err := q.Order("used_count ASC, created_at ASC").Find(&out).Error
	return out, err
}

func (s *Store) IncrementUsage(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Model(&types.QuizCandidate{}).
		Where("id IN ?", ids).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

func (s *Store) AppendResponse(r *types.QuizResponse) error {
	return s.db.Create(r).Error
}

func (s *Store) Responses(candidateID string) ([]types.QuizResponse, error) {
	var out []types.QuizResponse
	err := s.db.Where("candidate_id = ?", candidateID).Order("id").Find(&out).Error
	return out, err
}

// SetConsensus records the consensus label at most once per candidate.
// The IS NULL guard makes the write race-safe: concurrent submissions
// can both see consensus reached, but only one update changes a row,
// and only that caller feeds the ensemble.
func (s *Store) SetConsensus(candidateID, label string, at time.Time) (bool, error) {
	res := s.db.Model(&types.QuizCandidate{}).
		Where("id = ? AND consensus_label IS NULL", candidateID).
		Updates(map[string]interface{}{
			"consensus_label": label,
			"consensus_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) RecordAttempt(a *types.QuizAttempt) error {
	return s.db.Create(a).Error
}

func (s *Store) AddUserStats(userID string, points int, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points":    gorm.Expr("total_points + ?", points),
			"total_attempts":  gorm.Expr("total_attempts + 1"),
			"correct_answers": gorm.Expr("correct_answers + ?", correctInc),
			"updated_at":      time.Now(),
		}),
	}).Create(&types.UserStat{
		UserID:         userID,
		TotalPoints:    points,
		TotalAttempts:  1,
		CorrectAnswers: correctInc,
		UpdatedAt:      time.Now(),
	}).Error
}

func (s *Store) AddTopicStat(userID, topic string, correct bool) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "topic"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"attempts": gorm.Expr("attempts + 1"),
			"correct":  gorm.Expr("correct + ?", correctInc),
		}),
	}).Create(&types.TopicStat{
		UserID:   userID,
		Topic:    topic,
		Attempts: 1,
		Correct:  correctInc,
	}).Error
}

func (s *Store) TopicAccuracy(userID string) (map[string]float64, error) {
	var stats []types.TopicStat
	if err := s.db.Where("user_id = ?", userID).Find(&stats).Error; err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(stats))
	for _, t := range stats {
		if t.Attempts > 0 {
			out[t.Topic] = float64(t.Correct) / float64(t.Attempts)
		}
	}
	return out, nil
}

func (s *Store) UserStats(userID string) (*types.UserStat, []types.TopicStat, error) {
	var stat types.UserStat
	err := s.db.First(&stat, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	var topics []types.TopicStat
	if err := s.db.Where("user_id = ?", userID).Find(&topics).Error; err != nil {
		return nil, nil, err
	}
	return &stat, topics, nil
}

func (s *Store) Leaderboard(limit int) ([]types.UserStat, error) {
	var out []types.UserStat
	err := s.db.Order("total_points DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *Store) PoolStats() (quiz.PoolStats, error) {
	var out quiz.PoolStats
	if err := s.db.Model(&types.QuizCandidate{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	if err := s.db.Model(&types.QuizCandidate{}).
		Where("expires_at > ?", time.Now()).Count(&out.Active).Error; err != nil {
		return out, err
	}
	if err := s.db.Model(&types.QuizCandidate{}).
		Where("consensus_label IS NOT NULL").Count(&out.WithConsensus).Error; err != nil {
		return out, err
	}

	type group struct {
		Key string
		N   int64
	}
	var byTopic []group
	if err := s.db.Model(&types.QuizCandidate{}).
		Select("topic as `key`, count(*) as n").Group("topic").Scan(&byTopic).Error; err != nil {
		return out, err
	}
	out.ByTopic = make(map[string]int64, len(byTopic))
	for _, g := range byTopic {
		out.ByTopic[g.Key] = g.N
	}

	var byVerdict []group
	if err := s.db.Model(&types.QuizCandidate{}).
		Select("verdict as `key`, count(*) as n").Group("verdict").Scan(&byVerdict).Error; err != nil {
		return out, err
	}
	out.ByVerdict = make(map[string]int64, len(byVerdict))
	for _, g := range byVerdict {
		out.ByVerdict[g.Key] = g.N
	}
	return out, nil
}

// --- reports and news cache ---

func (s *Store) SaveReport(r *types.Report) error {
	return s.db.Create(r).Error
}

func (s *Store) GetNews(topic string) (*types.NewsEntry, error) {
	var e types.NewsEntry
	err := s.db.First(&e, "topic = ?", topic).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) PutNews(entry *types.NewsEntry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "topic"}},
		UpdateAll: true,
	}).Create(entry).Error
}
