package verifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritas-ai/veritas-api/src/api/types"
)

type fakeFactCheck struct {
	result FactCheckResult
	calls  int
}

func (f *fakeFactCheck) Check(ctx context.Context, claim string) (FactCheckResult, error) {
	f.calls++
	return f.result, nil
}

type fakeNews struct {
	articles []Article
	calls    int
}

func (f *fakeNews) Search(ctx context.Context, claim string) ([]Article, error) {
	f.calls++
	return f.articles, nil
}

type fakeMentions struct {
	result MentionResult
}

func (f *fakeMentions) Mentions(ctx context.Context, claim string) (MentionResult, error) {
	return f.result, nil
}

type fakeWeb struct {
	hits int
}

func (f *fakeWeb) Search(ctx context.Context, claim string) (int, error) {
	return f.hits, nil
}

type memStore struct {
	entries map[string]*types.VerificationEntry
	puts    int
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*types.VerificationEntry)}
}

func (m *memStore) GetVerification(key string) (*types.VerificationEntry, error) {
	return m.entries[key], nil
}

func (m *memStore) PutVerification(e *types.VerificationEntry) error {
	m.puts++
	m.entries[e.Key] = e
	return nil
}

func tier1Articles(n int) []Article {
	out := make([]Article, n)
	for i := range out {
		out[i] = Article{Source: "Reuters", URL: "https://www.reuters.com/article", Title: "t"}
	}
	return out
}

func TestVerifyFactCheckTrueSetsHighTier(t *testing.T) {
	fc := &fakeFactCheck{result: FactCheckResult{
		Found: true, Verified: true, Confidence: 0.90, Source: "snopes.com",
	}}
	svc := New(nil, fc, nil, nil, nil)

	rec, err := svc.Verify(context.Background(), "claim under test")
	require.NoError(t, err)
	assert.True(t, rec.Verified)
	assert.Equal(t, "high", rec.Tier)
	assert.InDelta(t, 0.90, rec.Confidence, 1e-9)
}

func TestVerifyTierLadderFromNews(t *testing.T) {
	svc := New(nil, nil, &fakeNews{articles: tier1Articles(2)}, nil, nil)

	rec, err := svc.Verify(context.Background(), "corroborated claim")
	require.NoError(t, err)
	assert.True(t, rec.Verified)
	assert.Equal(t, "high", rec.Tier)
	assert.InDelta(t, 0.85, rec.Confidence, 1e-9)
	assert.Equal(t, 2, rec.SourcesFound)
}

func TestVerifyConfidenceIsMonotonic(t *testing.T) {
	// Every extra corroborating provider can only hold or raise the
	// fused confidence.
	base := New(nil, nil, &fakeNews{articles: tier1Articles(2)}, nil, nil)
	recBase, err := base.Verify(context.Background(), "claim")
	require.NoError(t, err)

	more := New(nil,
		&fakeFactCheck{result: FactCheckResult{Found: true, Verified: true, Confidence: 0.90}},
		&fakeNews{articles: tier1Articles(2)},
		&fakeMentions{result: MentionResult{Checked: true, VerifiedMentions: 4, TotalMentions: 9}},
		&fakeWeb{hits: 3})
	recMore, err := more.Verify(context.Background(), "claim")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, recMore.Confidence, recBase.Confidence)
}

func TestVerifyFactCheckFalsePinsUnreliable(t *testing.T) {
	// A refuted fact check keeps the unreliable tier even when tier-1
	// outlets carry the story.
	svc := New(nil,
		&fakeFactCheck{result: FactCheckResult{Found: true, Verified: false, Confidence: 0.92, Rating: "false"}},
		&fakeNews{articles: tier1Articles(3)},
		nil, nil)

	rec, err := svc.Verify(context.Background(), "debunked but viral claim")
	require.NoError(t, err)
	assert.Equal(t, "unreliable", rec.Tier)
	assert.False(t, rec.Verified)
	assert.InDelta(t, 0.92, rec.Confidence, 1e-9)
}

func TestVerifyMemoryCacheSuppressesRepeatLookups(t *testing.T) {
	fc := &fakeFactCheck{result: FactCheckResult{Found: true, Verified: true, Confidence: 0.90}}
	svc := New(newMemStore(), fc, nil, nil, nil)

	first, err := svc.Verify(context.Background(), "cached claim")
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), "cached claim")
	require.NoError(t, err)

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Tier, second.Tier)
}

func TestVerifyDurableCacheSurvivesRestart(t *testing.T) {
	store := newMemStore()
	fc := &fakeFactCheck{result: FactCheckResult{Found: true, Verified: true, Confidence: 0.90}}

	svc := New(store, fc, nil, nil, nil)
	_, err := svc.Verify(context.Background(), "durable claim")
	require.NoError(t, err)
	require.Equal(t, 1, store.puts)

	// Fresh service, same store: the durable layer answers and the
	// provider stays untouched.
	fc2 := &fakeFactCheck{result: FactCheckResult{Found: true, Verified: true, Confidence: 0.90}}
	svc2 := New(store, fc2, nil, nil, nil)
	rec, err := svc2.Verify(context.Background(), "durable claim")
	require.NoError(t, err)
	assert.Zero(t, fc2.calls)
	assert.Equal(t, "high", rec.Tier)
	assert.Equal(t, 1, store.puts)
}

func TestVerifyExpiredDurableEntryRecomputes(t *testing.T) {
	store := newMemStore()
	key := Key("stale claim")
	store.entries[key] = &types.VerificationEntry{
		Key:       key,
		Result:    `{"confidence":0.9,"credibilityTier":"high"}`,
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}

	fc := &fakeFactCheck{result: FactCheckResult{Found: false}}
	svc := New(store, fc, nil, nil, nil)
	rec, err := svc.Verify(context.Background(), "stale claim")
	require.NoError(t, err)
	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, "unverified", rec.Tier)
}

func TestVerifyNoProvidersUnverified(t *testing.T) {
	svc := New(nil, nil, nil, nil, nil)
	rec, err := svc.Verify(context.Background(), "nobody checked this")
	require.NoError(t, err)
	assert.False(t, rec.Verified)
	assert.Equal(t, "unverified", rec.Tier)
	assert.Contains(t, rec.Explanation, "No external verification data")
}

func TestKeyDeterministicAndTruncated(t *testing.T) {
	k1 := Key("  the same claim ")
	k2 := Key("the same claim")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)

	long := make([]rune, 600)
	for i := range long {
		long[i] = 'a'
	}
	prefix := string(long[:500])
	assert.Equal(t, Key(prefix), Key(string(long)))
	assert.NotEqual(t, Key("claim a"), Key("claim b"))
}

func TestClassifyURL(t *testing.T) {
	assert.Equal(t, "satire", ClassifyURL("https://www.theonion.com/story").Credibility)
	assert.Equal(t, "high", ClassifyURL("https://www.reuters.com/world").Credibility)
	assert.Equal(t, "high", ClassifyURL("https://snopes.com/fact-check/x").Credibility)
	assert.Equal(t, "unreliable", ClassifyURL("https://infowars.com/show").Credibility)
	assert.Equal(t, "unknown", ClassifyURL("https://example.org/blog").Credibility)

	// Subdomains inherit the parent classification.
	assert.Equal(t, "high", ClassifyURL("https://live.bbc.co.uk/news").Credibility)
}

func TestUnreliableSourceRecord(t *testing.T) {
	rec := UnreliableSourceRecord()
	assert.False(t, rec.Verified)
	assert.Equal(t, "unreliable", rec.Tier)
	assert.InDelta(t, 0.95, rec.Confidence, 1e-9)
}

func TestIsTier1(t *testing.T) {
	assert.True(t, IsTier1("https://apnews.com/article/1"))
	assert.False(t, IsTier1("https://myblog.net/article/1"))
}
