package social

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/veritas-ai/veritas-api/src/api/components/verifier"
	"github.com/veritas-ai/veritas-api/src/api/types"
)

// Social reality layer: does not classify content, it scores how much
// the propagation pattern around a claim looks like coordinated
// misinformation. Cached on a short TTL; social sentiment decays much
// faster than editorial fact checks.

const (
	memTTL     = 30 * time.Minute
	durableTTL = 6 * time.Hour

	botFollowerRatio  = 10.0
	lowDiversityFloor = 0.4
	viralRetweetFloor = 50.0
)

type Reaction struct {
	Text      string
	Likes     int
	Retweets  int
	Replies   int
	Verified  bool
	Followers int
	Following int
}

// ReactionSource fetches a bounded sample of recent public reactions.
// Nil means no social data source is configured.
type ReactionSource interface {
	Recent(ctx context.Context, query string) ([]Reaction, error)
}

type Evidence struct {
	AvgRetweets           float64 `json:"avgRetweets"`
	AvgLikes              float64 `json:"avgLikes"`
	BotAmplification      float64 `json:"botAmplification"`
	VerifiedContradiction float64 `json:"verifiedContradiction"`
	EmotionalSpike        float64 `json:"emotionalSpike"`
	TextDiversity         float64 `json:"textDiversity"`
	SampleSize            int     `json:"sampleSize"`
	Note                  string  `json:"note,omitempty"`
}

type Signal struct {
	Enabled         bool     `json:"enabled"`
	FakeProbability float64  `json:"socialFakeProbability"`
	Evidence        Evidence `json:"evidence"`
}

type Store interface {
	GetSocial(key string) (*types.SocialEntry, error)
	PutSocial(entry *types.SocialEntry) error
}

type Scorer struct {
	source ReactionSource
	store  Store
	mem    *gocache.Cache
}

func NewScorer(source ReactionSource, store Store) *Scorer {
	return &Scorer{
		source: source,
		store:  store,
		mem:    gocache.New(memTTL, 10*time.Minute),
	}
}

// Score returns the disabled signal when no source is configured; a
// provider failure likewise degrades to disabled rather than erroring
// the caller's pipeline.
func (s *Scorer) Score(ctx context.Context, claim string) Signal {
	if s.source == nil {
		return Signal{Enabled: false}
	}

	key := verifier.Key(claim)
	if v, ok := s.mem.Get(key); ok {
		return v.(Signal)
	}
	if s.store != nil {
		entry, err := s.store.GetSocial(key)
		if err != nil {
			log.Printf("social: durable cache read failed: %v", err)
		} else if entry != nil && entry.ExpiresAt.After(time.Now()) {
			var sig Signal
			if err := json.Unmarshal([]byte(entry.Result), &sig); err == nil {
				s.mem.Set(key, sig, memTTL)
				return sig
			}
		}
	}

	sig := s.compute(ctx, claim)

	s.mem.Set(key, sig, memTTL)
	if s.store != nil {
		if raw, err := json.Marshal(sig); err == nil {
			if err := s.store.PutSocial(&types.SocialEntry{
				Key:       key,
				Result:    string(raw),
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(durableTTL),
			}); err != nil {
				log.Printf("social: durable cache write failed: %v", err)
			}
		}
	}
	return sig
}

func (s *Scorer) compute(ctx context.Context, claim string) Signal {
	query := strings.Join(socialKeywords(claim, 6), " ")
	reactions, err := s.source.Recent(ctx, query)
	if err != nil {
		log.Printf("social: reaction fetch failed: %v", err)
		return Signal{Enabled: false}
	}
	if len(reactions) == 0 {
		return Signal{Enabled: true, Evidence: Evidence{Note: "no_social_signal"}}
	}
	ev := computeEvidence(reactions)
	return Signal{
		Enabled:         true,
		FakeProbability: scoreEvidence(ev),
		Evidence:        ev,
	}
}

func computeEvidence(reactions []Reaction) Evidence {
	n := float64(len(reactions))

	var rtSum, likeSum float64
	botLike := 0
	emotional := 0
	texts := make(map[string]bool, len(reactions))
	verifiedTotal, verifiedNegative := 0, 0

	for _, r := range reactions {
		rtSum += float64(r.Retweets)
		likeSum += float64(r.Likes)
		following := r.Following
		if following < 1 {
			following = 1
		}
		if float64(r.Followers)/float64(following) > botFollowerRatio && !r.Verified {
			botLike++
		}
		if r.Verified {
			verifiedTotal++
			if negationSignal(r.Text) {
				verifiedNegative++
			}
		}
		if emotionalSignal(r.Text) {
			emotional++
		}
		texts[r.Text] = true
	}

	contradiction := 0.0
	if verifiedTotal > 0 {
		contradiction = float64(verifiedNegative) / float64(verifiedTotal)
	}

	return Evidence{
		AvgRetweets:           rtSum / n,
		AvgLikes:              likeSum / n,
		BotAmplification:      float64(botLike) / n,
		VerifiedContradiction: contradiction,
		EmotionalSpike:        float64(emotional) / n,
		TextDiversity:         float64(len(texts)) / n,
		SampleSize:            len(reactions),
	}
}

// scoreEvidence is the fixed-weight behaviour score: bot amplification
// 0.25, verified contradiction 0.30, emotional spike 0.15, plus bonuses
// for echo-chamber diversity and virality anomalies.
func scoreEvidence(ev Evidence) float64 {
	score := ev.BotAmplification*0.25 +
		ev.VerifiedContradiction*0.30 +
		ev.EmotionalSpike*0.15
	if ev.TextDiversity < lowDiversityFloor {
		score += 0.15
	}
	if ev.AvgRetweets > viralRetweetFloor {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}

var negationMarkers = []string{"fake", "false", "misleading", "not true", "debunked", "hoax", "wrong"}
var emotionalMarkers = []string{"shocking", "terrifying", "disgusting", "outrage", "horrible", "insane"}

func negationSignal(text string) bool {
	return containsAny(strings.ToLower(text), negationMarkers)
}

func emotionalSignal(text string) bool {
	return containsAny(strings.ToLower(text), emotionalMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

var socialWordRe = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

var socialStop = map[string]bool{
	"that": true, "with": true, "this": true, "from": true, "they": true,
	"have": true, "were": true, "which": true, "would": true,
}

func socialKeywords(text string, n int) []string {
	words := socialWordRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, n)
	seen := make(map[string]bool)
	for _, w := range words {
		if socialStop[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == n {
			break
		}
	}
	return out
}
