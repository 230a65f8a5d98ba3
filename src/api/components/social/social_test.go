package social

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-ai/veritas-api/src/api/types"
)

type fakeSource struct {
	reactions []Reaction
	err       error
	calls     int
}

func (f *fakeSource) Recent(ctx context.Context, query string) ([]Reaction, error) {
	f.calls++
	return f.reactions, f.err
}

type memSocialStore struct {
	entries map[string]*types.SocialEntry
}

func newMemSocialStore() *memSocialStore {
	return &memSocialStore{entries: make(map[string]*types.SocialEntry)}
}

func (m *memSocialStore) GetSocial(key string) (*types.SocialEntry, error) {
	return m.entries[key], nil
}

func (m *memSocialStore) PutSocial(e *types.SocialEntry) error {
	m.entries[e.Key] = e
	return nil
}

func TestScoreDisabledWithoutSource(t *testing.T) {
	s := NewScorer(nil, nil)
	sig := s.Score(context.Background(), "anything")
	assert.False(t, sig.Enabled)
	assert.Zero(t, sig.FakeProbability)
}

func TestScoreDegradesOnSourceError(t *testing.T) {
	s := NewScorer(&fakeSource{err: errors.New("rate limited")}, nil)
	sig := s.Score(context.Background(), "claim")
	assert.False(t, sig.Enabled)
}

func TestScoreEmptySample(t *testing.T) {
	s := NewScorer(&fakeSource{}, nil)
	sig := s.Score(context.Background(), "claim")
	assert.True(t, sig.Enabled)
	assert.Zero(t, sig.FakeProbability)
	assert.Equal(t, "no_social_signal", sig.Evidence.Note)
}

func TestScoreCachesResult(t *testing.T) {
	src := &fakeSource{reactions: []Reaction{{Text: "ok", Likes: 1, Followers: 5, Following: 5}}}
	s := NewScorer(src, newMemSocialStore())

	first := s.Score(context.Background(), "same claim")
	second := s.Score(context.Background(), "same claim")
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
}

func TestComputeEvidenceRatios(t *testing.T) {
	reactions := []Reaction{
		// Bot-like: huge follower/following skew, unverified.
		{Text: "spread this", Retweets: 100, Likes: 10, Followers: 5000, Following: 10},
		// Verified account contradicting the claim.
		{Text: "this is fake and debunked", Verified: true, Followers: 100, Following: 100},
		// Emotional amplification.
		{Text: "shocking and disgusting!", Retweets: 20, Followers: 50, Following: 50},
		// Duplicate text, echo chamber.
		{Text: "spread this", Retweets: 100, Likes: 10, Followers: 40, Following: 40},
	}

	ev := computeEvidence(reactions)
	assert.Equal(t, 4, ev.SampleSize)
	assert.InDelta(t, 55.0, ev.AvgRetweets, 1e-9)
	assert.InDelta(t, 0.25, ev.BotAmplification, 1e-9)
	assert.InDelta(t, 1.0, ev.VerifiedContradiction, 1e-9)
	assert.InDelta(t, 0.25, ev.EmotionalSpike, 1e-9)
	assert.InDelta(t, 0.75, ev.TextDiversity, 1e-9)
}

func TestScoreEvidenceWeights(t *testing.T) {
	ev := Evidence{
		BotAmplification:      1,
		VerifiedContradiction: 1,
		EmotionalSpike:        1,
		TextDiversity:         0.2, // below diversity floor
		AvgRetweets:           100, // above viral floor
	}
	assert.InDelta(t, 1.0, scoreEvidence(ev), 1e-9) // clamped

	mild := Evidence{BotAmplification: 0.4, TextDiversity: 0.9}
	assert.InDelta(t, 0.1, scoreEvidence(mild), 1e-9)
}

func TestVerifiedAccountsAreNotBots(t *testing.T) {
	ev := computeEvidence([]Reaction{
		{Text: "a", Verified: true, Followers: 100000, Following: 10},
	})
	assert.Zero(t, ev.BotAmplification)
}

func TestSocialKeywords(t *testing.T) {
	kws := socialKeywords("Scientists discover that water with minerals cures disease", 4)
	require.NotEmpty(t, kws)
	assert.LessOrEqual(t, len(kws), 4)
	assert.Equal(t, "scientists", kws[0])
	assert.NotContains(t, kws, "that")
	assert.NotContains(t, kws, "with")
}
