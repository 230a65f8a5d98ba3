package quiz

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veritas-ai/veritas-api/src/api/components/ensemble"
	"github.com/veritas-ai/veritas-api/src/api/components/nlp"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

// Crowd-consensus feedback loop. High-confidence verdicts become quiz
// candidates; when enough independent answers agree on one, the agreed
// label is written back into the ensemble as a training sample.

const (
	CandidateThreshold = 0.90
	ConsensusThreshold = 0.80
	MinResponses       = 10
	CandidateTTL       = 30 * 24 * time.Hour

	pointsPerCorrect = 10
	maxQuestions     = 20
	weakTopicShare   = 0.7
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrBadAnswer        = errors.New("answer must be REAL or FAKE")
)

// Trainer receives the consensus label as a training sample. Satisfied
// by the ensemble model.
type Trainer interface {
	UpdateFromFeedback(fv []float64, label int, source, predictionID string) error
}

// Events is the outbound notification hook for consensus decisions. A
// nil Events means no notifications.
type Events interface {
	ConsensusReached(candidateID, label string, votes int, agreement float64)
}

// CandidateFilter narrows eligible-candidate queries. MaxConfidence 0
// means no upper bound. Results come back least-shown first.
type CandidateFilter struct {
	Topic         string
	MinConfidence float64
	MaxConfidence float64
	Exclude       []string
	Limit         int
}

// PoolStats is the admin snapshot of candidate-pool health.
type PoolStats struct {
	Total         int64            `json:"totalCandidates"`
	Active        int64            `json:"activeCandidates"`
	WithConsensus int64            `json:"withConsensus"`
	ByTopic       map[string]int64 `json:"byTopic"`
	ByVerdict     map[string]int64 `json:"byVerdict"`
}

type Store interface {
	FindFreshByHeadline(headline string, since time.Time) (*types.QuizCandidate, error)
	InsertCandidate(c *types.QuizCandidate) error
	Candidate(id string) (*types.QuizCandidate, error)
	EligibleCandidates(f CandidateFilter) ([]types.QuizCandidate, error)
	IncrementUsage(ids []string) error
	AppendResponse(r *types.QuizResponse) error
	Responses(candidateID string) ([]types.QuizResponse, error)
	SetConsensus(candidateID, label string, at time.Time) (bool, error)
	RecordAttempt(a *types.QuizAttempt) error
	AddUserStats(userID string, points int, correct bool) error
	AddTopicStat(userID, topic string, correct bool) error
	TopicAccuracy(userID string) (map[string]float64, error)
	UserStats(userID string) (*types.UserStat, []types.TopicStat, error)
	Leaderboard(limit int) ([]types.UserStat, error)
	PoolStats() (PoolStats, error)
}

type Pool struct {
	store   Store
	trainer Trainer
	events  Events
}

func NewPool(store Store, trainer Trainer, events Events) *Pool {
	return &Pool{store: store, trainer: trainer, events: events}
}

// Question is one served quiz item. CandidateID is empty for curated
// static questions.
type Question struct {
	ID            string `json:"id"`
	CandidateID   string `json:"candidate_id,omitempty"`
	Headline      string `json:"headline"`
	CorrectAnswer string `json:"correct_answer"`
	Topic         string `json:"topic"`
	Difficulty    string `json:"difficulty"`
	Explanation   string `json:"explanation"`
	Source        string `json:"source"`
}

// MaybeAdd promotes a fresh verdict into the candidate pool. Only
// decisive REAL/FAKE verdicts at or above the promotion threshold
// qualify, and a headline already pooled within the TTL window is not
// duplicated. Failures are logged, never surfaced: promotion rides on
// the prediction path and must not affect it.
func (p *Pool) MaybeAdd(headline, verdict string, confidence float64, fv []float64, explanation string) {
	if p.store == nil {
		return
	}
	if verdict != "REAL" && verdict != "FAKE" {
		return
	}
	if confidence < CandidateThreshold {
		return
	}

	cutoff := time.Now().Add(-CandidateTTL)
	if existing, err := p.store.FindFreshByHeadline(headline, cutoff); err != nil {
		log.Printf("quiz: candidate dedup lookup failed: %v", err)
		return
	} else if existing != nil {
		return
	}

	if explanation == "" {
		explanation = fmt.Sprintf("Our ensemble model detected this as %s with high confidence.",
			strings.ToLower(verdict))
	}

	now := time.Now()
	cand := &types.QuizCandidate{
		ID:            uuid.NewString(),
		Headline:      headline,
		Verdict:       verdict,
		Confidence:    confidence,
		Topic:         nlp.ClassifyTopic(headline),
		FeatureVector: encodeVector(fv),
		Explanation:   explanation,
		CreatedAt:     now,
		ExpiresAt:     now.Add(CandidateTTL),
	}
	if err := p.store.InsertCandidate(cand); err != nil {
		log.Printf("quiz: candidate insert failed: %v", err)
	}
}

// SelectQuestions picks up to limit questions for a user, preferring
// the topics they are weakest in, then lower-confidence fillers for
// challenge, then anything eligible. Falls back to the curated static
// set when the pool cannot serve. The second return value names the
// source ("adaptive_pool" or "static").
func (p *Pool) SelectQuestions(userID string, limit int, difficulty string) ([]Question, string, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxQuestions {
		limit = maxQuestions
	}

	if p.store == nil {
		return StaticQuestions()[:min(limit, len(StaticQuestions()))], "static", nil
	}

	base := CandidateFilter{}
	switch difficulty {
	case "easy":
		base.MinConfidence = 0.90
	case "medium":
		base.MinConfidence, base.MaxConfidence = 0.70, 0.90
	case "hard":
		base.MinConfidence, base.MaxConfidence = 0.50, 0.70
	}

	var picked []types.QuizCandidate
	selected := map[string]bool{}
	exclude := func() []string {
		ids := make([]string, 0, len(selected))
		for id := range selected {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return ids
	}
	take := func(batch []types.QuizCandidate) {
		for _, c := range batch {
			if !selected[c.ID] {
				selected[c.ID] = true
				picked = append(picked, c)
			}
		}
	}

	// Phase 1: weakest topics first, up to 70% of the request.
	target := int(float64(limit) * weakTopicShare)
	if target < 1 {
		target = 1
	}
	for _, topic := range p.WeakTopics(userID) {
		if len(picked) >= target {
			break
		}
		f := base
		f.Topic = topic
		f.Exclude = exclude()
		f.Limit = target - len(picked)
		batch, err := p.store.EligibleCandidates(f)
		if err != nil {
			return nil, "", err
		}
		take(batch)
	}

	// Phase 2: fill with uncertain verdicts for extra challenge.
	if len(picked) < limit {
		f := base
		f.MaxConfidence = 0.80
		f.Exclude = exclude()
		f.Limit = limit - len(picked)
		batch, err := p.store.EligibleCandidates(f)
		if err != nil {
			return nil, "", err
		}
		take(batch)
	}

	// Phase 3: anything eligible.
	if len(picked) < limit {
		f := base
		f.Exclude = exclude()
		f.Limit = limit - len(picked)
		batch, err := p.store.EligibleCandidates(f)
		if err != nil {
			return nil, "", err
		}
		take(batch)
	}

	if len(picked) == 0 {
		static := StaticQuestions()
		if limit < len(static) {
			static = static[:limit]
		}
		return static, "static", nil
	}

	ids := make([]string, len(picked))
	questions := make([]Question, len(picked))
	for i, c := range picked {
		ids[i] = c.ID
		questions[i] = Question{
			ID:            c.ID,
			CandidateID:   c.ID,
			Headline:      c.Headline,
			CorrectAnswer: c.Verdict,
			Topic:         c.Topic,
			Difficulty:    difficultyLabel(c.Confidence),
			Explanation:   c.Explanation,
			Source:        "ai_generated",
		}
	}
	if err := p.store.IncrementUsage(ids); err != nil {
		log.Printf("quiz: usage increment failed: %v", err)
	}
	return questions, "adaptive_pool", nil
}

func difficultyLabel(confidence float64) string {
	switch {
	case confidence >= 0.90:
		return "easy"
	case confidence >= 0.70:
		return "medium"
	default:
		return "hard"
	}
}

// AnswerResult summarizes one graded submission.
type AnswerResult struct {
	Correct       bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Points        int    `json:"points_earned"`
	Explanation   string `json:"explanation"`
	Topic         string `json:"topic"`
	FromPool      bool   `json:"-"`
}

// SubmitAnswer grades one answer, records the attempt and stats, and
// for pool candidates appends the vote and re-evaluates consensus.
func (p *Pool) SubmitAnswer(userID, questionID, candidateID, answer string) (*AnswerResult, error) {
	answer = strings.ToUpper(strings.TrimSpace(answer))
	if answer != "REAL" && answer != "FAKE" {
		return nil, ErrBadAnswer
	}
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return nil, ErrQuestionNotFound
	}

	var cand *types.QuizCandidate
	if p.store != nil {
		lookup := candidateID
		if lookup == "" {
			lookup = questionID
		}
		var err error
		cand, err = p.store.Candidate(lookup)
		if err != nil {
			return nil, err
		}
	}

	res := &AnswerResult{Topic: nlp.TopicGeneral}
	attemptCandID := ""
	if cand != nil {
		res.CorrectAnswer = cand.Verdict
		res.Explanation = cand.Explanation
		res.Topic = cand.Topic
		res.FromPool = true
		attemptCandID = cand.ID
	} else {
		sq, ok := staticQuestion(questionID)
		if !ok {
			return nil, ErrQuestionNotFound
		}
		res.CorrectAnswer = sq.CorrectAnswer
		res.Explanation = sq.Explanation
		res.Topic = sq.Topic
	}

	res.Correct = answer == res.CorrectAnswer
	if res.Correct {
		res.Points = pointsPerCorrect
	}
	if res.Explanation == "" {
		res.Explanation = fmt.Sprintf("Our detector classified this as %s with high confidence.", res.CorrectAnswer)
	}

	if p.store != nil && userID != "" {
		if err := p.store.RecordAttempt(&types.QuizAttempt{
			UserID:      userID,
			QuestionID:  questionID,
			CandidateID: attemptCandID,
			Topic:       res.Topic,
			Answer:      answer,
			Correct:     res.Correct,
			Points:      res.Points,
			CreatedAt:   time.Now(),
		}); err != nil {
			log.Printf("quiz: attempt record failed: %v", err)
		}
		if err := p.store.AddUserStats(userID, res.Points, res.Correct); err != nil {
			log.Printf("quiz: user stats update failed: %v", err)
		}
		if err := p.store.AddTopicStat(userID, res.Topic, res.Correct); err != nil {
			log.Printf("quiz: topic stats update failed: %v", err)
		}
	}

	if cand != nil && p.store != nil {
		if err := p.store.AppendResponse(&types.QuizResponse{
			CandidateID: cand.ID,
			UserID:      userID,
			Answer:      answer,
			Correct:     res.Correct,
			CreatedAt:   time.Now(),
		}); err != nil {
			log.Printf("quiz: response append failed: %v", err)
		} else {
			p.evaluateConsensus(cand)
		}
	}

	return res, nil
}

// evaluateConsensus checks whether the candidate has collected enough
// agreeing votes and, exactly once per candidate, feeds the agreed
// label back into the trainer. The conditional consensus write is the
// once-only guard: whichever submission's update lands first wins, and
// every other one sees zero rows changed.
func (p *Pool) evaluateConsensus(cand *types.QuizCandidate) {
	if cand.ConsensusLabel != nil {
		return
	}
	responses, err := p.store.Responses(cand.ID)
	if err != nil {
		log.Printf("quiz: consensus response load failed: %v", err)
		return
	}
	if len(responses) < MinResponses {
		return
	}

	fakeVotes := 0
	for _, r := range responses {
		if r.Answer == "FAKE" {
			fakeVotes++
		}
	}
	fakeRatio := float64(fakeVotes) / float64(len(responses))

	var consensus string
	var agreement float64
	switch {
	case fakeRatio >= ConsensusThreshold:
		consensus, agreement = "FAKE", fakeRatio
	case 1-fakeRatio >= ConsensusThreshold:
		consensus, agreement = "REAL", 1-fakeRatio
	default:
		return
	}

	applied, err := p.store.SetConsensus(cand.ID, consensus, time.Now())
	if err != nil {
		log.Printf("quiz: consensus write failed: %v", err)
		return
	}
	if !applied {
		return
	}

	fv, err := decodeVector(cand.FeatureVector)
	if err == nil && len(fv) == ensemble.NumFeatures && p.trainer != nil {
		label := ensemble.LabelReal
		if consensus == "FAKE" {
			label = ensemble.LabelFake
		}
		if err := p.trainer.UpdateFromFeedback(fv, label, "quiz", cand.ID); err != nil {
			log.Printf("quiz: consensus ensemble update failed: %v", err)
		}
	}
	if p.events != nil {
		p.events.ConsensusReached(cand.ID, consensus, len(responses), agreement)
	}
	log.Printf("quiz: consensus on candidate %s: %s (%.0f%% of %d responses)",
		cand.ID, consensus, agreement*100, len(responses))
}

// WeakTopics orders topics for personalised selection: topics the user
// has never been quizzed on first, then seen topics worst accuracy
// first. Without a user or stats, every topic in a stable order.
func (p *Pool) WeakTopics(userID string) []string {
	all := nlp.Topics()
	if p.store == nil || userID == "" {
		return all
	}
	accuracy, err := p.store.TopicAccuracy(userID)
	if err != nil {
		log.Printf("quiz: weak topic lookup failed: %v", err)
		return all
	}

	var unseen, seen []string
	for _, t := range all {
		if _, ok := accuracy[t]; ok {
			seen = append(seen, t)
		} else {
			unseen = append(unseen, t)
		}
	}
	sort.SliceStable(seen, func(i, j int) bool {
		return accuracy[seen[i]] < accuracy[seen[j]]
	})
	return append(unseen, seen...)
}

// Stats returns the per-user quiz summary with per-topic accuracy.
type UserSummary struct {
	TotalPoints     int                `json:"total_points"`
	TotalAttempts   int                `json:"total_attempts"`
	CorrectAnswers  int                `json:"correct_answers"`
	OverallAccuracy float64            `json:"overall_accuracy"`
	TopicAccuracy   map[string]float64 `json:"topic_accuracy"`
	WeakTopics      []string           `json:"weak_topics"`
}

func (p *Pool) Stats(userID string) (*UserSummary, error) {
	if p.store == nil {
		return &UserSummary{TopicAccuracy: map[string]float64{}}, nil
	}
	stat, topics, err := p.store.UserStats(userID)
	if err != nil {
		return nil, err
	}
	out := &UserSummary{TopicAccuracy: make(map[string]float64)}
	if stat != nil {
		out.TotalPoints = stat.TotalPoints
		out.TotalAttempts = stat.TotalAttempts
		out.CorrectAnswers = stat.CorrectAnswers
		if stat.TotalAttempts > 0 {
			out.OverallAccuracy = round3(float64(stat.CorrectAnswers) / float64(stat.TotalAttempts))
		}
	}
	type ta struct {
		topic string
		acc   float64
	}
	var order []ta
	for _, t := range topics {
		if t.Attempts == 0 {
			continue
		}
		acc := round3(float64(t.Correct) / float64(t.Attempts))
		out.TopicAccuracy[t.Topic] = acc
		order = append(order, ta{t.Topic, acc})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].acc < order[j].acc })
	for i := 0; i < len(order) && i < 3; i++ {
		out.WeakTopics = append(out.WeakTopics, order[i].topic)
	}
	return out, nil
}

func (p *Pool) Leaderboard(limit int) ([]types.UserStat, error) {
	if p.store == nil {
		return []types.UserStat{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return p.store.Leaderboard(limit)
}

func (p *Pool) PoolStats() (PoolStats, error) {
	if p.store == nil {
		return PoolStats{ByTopic: map[string]int64{}, ByVerdict: map[string]int64{}}, nil
	}
	return p.store.PoolStats()
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
