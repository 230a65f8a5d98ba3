package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	streamFeedback  = "veritas.feedback"
	streamConsensus = "veritas.consensus"

	publishTimeout = 2 * time.Second
)

// Publisher pushes learning events onto Redis streams so downstream
// consumers (dashboards, audit jobs) can follow the feedback loop.
// Every method is fire-and-forget: stream trouble never blocks the
// request path.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) publish(stream string, payload map[string]interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: payload,
	}).Err(); err != nil {
		log.Printf("redis: publish to %s failed: %v", stream, err)
	}
}

// FeedbackReceived announces one labelled sample entering the
// ensemble's training log.
func (p *Publisher) FeedbackReceived(predictionID, label, source string) {
	p.publish(streamFeedback, map[string]interface{}{
		"prediction_id": predictionID,
		"label":         label,
		"source":        source,
		"at":            time.Now().UTC().Format(time.RFC3339),
	})
}

// ConsensusReached announces a crowd-consensus decision on a quiz
// candidate. Satisfies quiz.Events.
func (p *Publisher) ConsensusReached(candidateID, label string, votes int, agreement float64) {
	p.publish(streamConsensus, map[string]interface{}{
		"candidate_id": candidateID,
		"label":        label,
		"votes":        votes,
		"agreement":    agreement,
		"at":           time.Now().UTC().Format(time.RFC3339),
	})
}
