package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/veritas-ai/veritas-api/src/api/types"
)

// Two-layer cached aggregation over independent, unreliable signal
// providers. Every provider is best-effort: a failure contributes an
// empty result and never aborts the pass.

const (
	memTTL     = time.Hour
	durableTTL = 7 * 24 * time.Hour
)

type FactCheckResult struct {
	Found       bool    `json:"found"`
	Verified    bool    `json:"verified"`
	Rating      string  `json:"rating,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Source      string  `json:"source,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

type Article struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type MentionResult struct {
	Checked          bool `json:"checked"`
	VerifiedMentions int  `json:"verifiedMentions"`
	TotalMentions    int  `json:"totalMentions"`
}

type Record struct {
	Verified       bool            `json:"verified"`
	Confidence     float64         `json:"confidence"`
	SourcesFound   int             `json:"sourcesFound"`
	TrustedSources []Article       `json:"trustedSources"`
	FactCheck      FactCheckResult `json:"factCheck"`
	Mentions       MentionResult   `json:"mentions"`
	Tier           string          `json:"credibilityTier"`
	Explanation    string          `json:"explanation"`
	Details        []string        `json:"details,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Capability interfaces. A nil provider means the capability is absent
// and its lookup is simply not part of the aggregation list.

type FactChecker interface {
	Check(ctx context.Context, claim string) (FactCheckResult, error)
}

type NewsSearcher interface {
	Search(ctx context.Context, claim string) ([]Article, error)
}

type MentionChecker interface {
	Mentions(ctx context.Context, claim string) (MentionResult, error)
}

type WebSearcher interface {
	Search(ctx context.Context, claim string) (tier1Hits int, err error)
}

// Store is the durable cache layer.
type Store interface {
	GetVerification(key string) (*types.VerificationEntry, error)
	PutVerification(entry *types.VerificationEntry) error
}

type Service struct {
	store   Store
	mem     *gocache.Cache
	lookups []lookup
}

// lookup is one best-effort provider pass mutating the record.
type lookup struct {
	name string
	run  func(ctx context.Context, claim string, r *Record)
}

func New(store Store, factCheck FactChecker, news NewsSearcher, mentions MentionChecker, web WebSearcher) *Service {
	s := &Service{
		store: store,
		mem:   gocache.New(memTTL, 10*time.Minute),
	}
	if factCheck != nil {
		s.lookups = append(s.lookups, lookup{"factcheck", func(ctx context.Context, claim string, r *Record) {
			fc, err := factCheck.Check(ctx, claim)
			if err != nil {
				log.Printf("verifier: fact-check lookup failed: %v", err)
				return
			}
			r.FactCheck = fc
			if fc.Found {
				r.raise(fc.Confidence, fmt.Sprintf("Fact-checked by %s", fc.Source))
				r.Verified = fc.Verified
				if fc.Verified {
					r.Tier = "high"
				} else {
					r.Tier = "unreliable"
				}
			}
		}})
	}
	if news != nil {
		s.lookups = append(s.lookups, lookup{"news", func(ctx context.Context, claim string, r *Record) {
			articles, err := news.Search(ctx, claim)
			if err != nil {
				log.Printf("verifier: news lookup failed: %v", err)
				return
			}
			r.SourcesFound = len(articles)
			r.TrustedSources = articles
			if len(articles) > 0 {
				r.Details = append(r.Details, fmt.Sprintf("Found in %d trusted news sources", len(articles)))
			}
			tier1 := 0
			for _, a := range articles {
				if IsTier1(a.URL) {
					tier1++
				}
			}
			if tier1 >= 2 {
				r.raise(0.85, "Corroborated by multiple tier-1 outlets")
				r.Verified = true
			}
		}})
	}
	if mentions != nil {
		s.lookups = append(s.lookups, lookup{"mentions", func(ctx context.Context, claim string, r *Record) {
			m, err := mentions.Mentions(ctx, claim)
			if err != nil {
				log.Printf("verifier: mention lookup failed: %v", err)
				return
			}
			r.Mentions = m
			if m.VerifiedMentions >= 2 {
				r.raise(0.75, fmt.Sprintf("%d verified social mentions", m.VerifiedMentions))
			}
		}})
	}
	if web != nil {
		s.lookups = append(s.lookups, lookup{"websearch", func(ctx context.Context, claim string, r *Record) {
			hits, err := web.Search(ctx, claim)
			if err != nil {
				log.Printf("verifier: web search failed: %v", err)
				return
			}
			if hits >= 1 {
				r.raise(0.80, fmt.Sprintf("Web search: %d tier-1 sources", hits))
			}
		}})
	}
	return s
}

// raise lifts confidence to a floor. Corroborating evidence can only
// push confidence up, never down.
func (r *Record) raise(floor float64, detail string) {
	if floor > r.Confidence {
		r.Confidence = floor
	}
	r.Details = append(r.Details, detail)
}

// Verify resolves a claim through the fast cache, the durable cache,
// then a full aggregation pass, writing through both layers.
func (s *Service) Verify(ctx context.Context, claim string) (Record, error) {
	key := Key(claim)

	if v, ok := s.mem.Get(key); ok {
		return v.(Record), nil
	}

	if s.store != nil {
		entry, err := s.store.GetVerification(key)
		if err != nil {
			log.Printf("verifier: durable cache read failed: %v", err)
		} else if entry != nil && entry.ExpiresAt.After(time.Now()) {
			var rec Record
			if err := json.Unmarshal([]byte(entry.Result), &rec); err == nil {
				s.mem.Set(key, rec, memTTL)
				return rec, nil
			}
		}
	}

	rec := s.aggregate(ctx, claim)

	s.mem.Set(key, rec, memTTL)
	if s.store != nil {
		raw, err := json.Marshal(rec)
		if err == nil {
			err = s.store.PutVerification(&types.VerificationEntry{
				Key:       key,
				Headline:  truncate(claim, 500),
				Result:    string(raw),
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(durableTTL),
			})
		}
		if err != nil {
			log.Printf("verifier: durable cache write failed: %v", err)
		}
	}
	return rec, nil
}

func (s *Service) aggregate(ctx context.Context, claim string) Record {
	rec := Record{Tier: "unknown", CreatedAt: time.Now()}
	for _, l := range s.lookups {
		l.run(ctx, claim, &rec)
	}

	// Tier ladder over the fused confidence. A fact-check FALSE verdict
	// pins the tier to unreliable regardless of corroboration volume.
	if rec.FactCheck.Found && !rec.FactCheck.Verified {
		rec.Tier = "unreliable"
		rec.Verified = false
	} else {
		switch {
		case rec.Confidence >= 0.75:
			rec.Tier = "high"
			rec.Verified = true
		case rec.Confidence >= 0.50:
			rec.Tier = "medium"
		case rec.Confidence >= 0.30:
			rec.Tier = "low"
		default:
			rec.Tier = "unverified"
		}
	}

	rec.Explanation = explain(rec)
	return rec
}

func explain(r Record) string {
	if len(r.Details) == 0 {
		return "No external verification data available. Treat with caution."
	}
	s := "Verification: " + strings.Join(r.Details, "; ")
	if r.Verified {
		return s + " -> VERIFIED."
	}
	return s + " -> Unable to verify."
}

// UnreliableSourceRecord is the explicit override a known
// misinformation domain produces without any aggregation.
func UnreliableSourceRecord() Record {
	return Record{
		Verified:    false,
		Confidence:  0.95,
		Tier:        "unreliable",
		Explanation: "Known misinformation source",
		CreatedAt:   time.Now(),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
