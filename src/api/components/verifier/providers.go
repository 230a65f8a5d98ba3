package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Concrete providers. Single-digit-second timeouts, no retries: a slow
// or failing provider degrades to an empty contribution upstream.

const providerTimeout = 8 * time.Second

func newProviderClient() *http.Client {
	return &http.Client{Timeout: providerTimeout}
}

// ---------- Google custom search: fact-check restricted ----------

var falseMarkers = []string{"false", "fake", "misleading", "debunked", "pants on fire"}
var trueMarkers = []string{"true", "correct", "accurate", "verified", "mostly true"}

type GoogleFactCheck struct {
	apiKey string
	cx     string
	client *http.Client
}

func NewGoogleFactCheck(apiKey, cx string) *GoogleFactCheck {
	if apiKey == "" || cx == "" {
		return nil
	}
	return &GoogleFactCheck{apiKey: apiKey, cx: cx, client: newProviderClient()}
}

type customSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (g *GoogleFactCheck) customSearch(ctx context.Context, query string, num int) (customSearchResponse, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cx)
	params.Set("q", query)
	params.Set("num", fmt.Sprint(num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://www.googleapis.com/customsearch/v1?"+params.Encode(), nil)
	if err != nil {
		return customSearchResponse{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return customSearchResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return customSearchResponse{}, fmt.Errorf("custom search: status %d", resp.StatusCode)
	}
	var out customSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return customSearchResponse{}, err
	}
	return out, nil
}

func (g *GoogleFactCheck) Check(ctx context.Context, claim string) (FactCheckResult, error) {
	var sites []string
	for _, d := range factCheckDomains[:4] {
		sites = append(sites, "site:"+d)
	}
	query := claim + " " + strings.Join(sites, " OR ")

	res, err := g.customSearch(ctx, query, 5)
	if err != nil {
		return FactCheckResult{}, err
	}
	for _, item := range res.Items {
		combo := strings.ToLower(item.Title + " " + item.Snippet)
		source := item.DisplayLink
		if source == "" {
			source = "fact-checker"
		}
		if containsAny(combo, falseMarkers) {
			return FactCheckResult{
				Found: true, Verified: false, Rating: "FALSE", Confidence: 0.92,
				Source: source, Explanation: "Flagged as false by " + source,
			}, nil
		}
		if containsAny(combo, trueMarkers) {
			return FactCheckResult{
				Found: true, Verified: true, Rating: "TRUE", Confidence: 0.90,
				Source: source, Explanation: "Verified as accurate by " + source,
			}, nil
		}
	}
	return FactCheckResult{}, nil
}

// ---------- Google custom search: open web, tier-1 filtered ----------

type GoogleWebSearch struct {
	inner *GoogleFactCheck
}

func NewGoogleWebSearch(apiKey, cx string) *GoogleWebSearch {
	inner := NewGoogleFactCheck(apiKey, cx)
	if inner == nil {
		return nil
	}
	return &GoogleWebSearch{inner: inner}
}

func (g *GoogleWebSearch) Search(ctx context.Context, claim string) (int, error) {
	res, err := g.inner.customSearch(ctx, claim, 10)
	if err != nil {
		return 0, err
	}
	hits := 0
	for _, item := range res.Items {
		if IsTier1(item.Link) {
			hits++
		}
	}
	return hits, nil
}

// ---------- NewsAPI ----------

type NewsAPI struct {
	apiKey string
	client *http.Client
}

func NewNewsAPI(apiKey string) *NewsAPI {
	if apiKey == "" {
		return nil
	}
	return &NewsAPI{apiKey: apiKey, client: newProviderClient()}
}

func (n *NewsAPI) Search(ctx context.Context, claim string) ([]Article, error) {
	params := url.Values{}
	params.Set("apiKey", n.apiKey)
	params.Set("q", claim)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", "20")
	params.Set("from", time.Now().AddDate(0, 0, -30).Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://newsapi.org/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: status %d", resp.StatusCode)
	}

	var out struct {
		Articles []struct {
			Source      struct{ Name string } `json:"source"`
			URL         string                `json:"url"`
			Title       string                `json:"title"`
			PublishedAt string                `json:"publishedAt"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	var trusted []Article
	for _, a := range out.Articles {
		if IsTier1(a.URL) {
			trusted = append(trusted, Article{
				Source: a.Source.Name, URL: a.URL,
				Title: a.Title, PublishedAt: a.PublishedAt,
			})
		}
	}
	return trusted, nil
}

// ---------- Twitter recent search, verified-author mentions ----------

type TwitterMentions struct {
	bearer string
	client *http.Client
}

func NewTwitterMentions(bearer string) *TwitterMentions {
	if bearer == "" {
		return nil
	}
	return &TwitterMentions{bearer: bearer, client: newProviderClient()}
}

func (t *TwitterMentions) Mentions(ctx context.Context, claim string) (MentionResult, error) {
	kw := topKeywords(claim, 5)
	params := url.Values{}
	params.Set("query", strings.Join(kw, " ")+" -is:retweet has:links")
	params.Set("max_results", "20")
	params.Set("tweet.fields", "author_id,created_at")
	params.Set("user.fields", "verified,verified_type")
	params.Set("expansions", "author_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.twitter.com/2/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return MentionResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+t.bearer)

	resp, err := t.client.Do(req)
	if err != nil {
		return MentionResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return MentionResult{}, fmt.Errorf("twitter: status %d", resp.StatusCode)
	}

	var out struct {
		Data []struct {
			AuthorID string `json:"author_id"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID           string `json:"id"`
				Verified     bool   `json:"verified"`
				VerifiedType string `json:"verified_type"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return MentionResult{}, err
	}

	users := make(map[string]bool, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		switch u.VerifiedType {
		case "blue", "business", "government":
			users[u.ID] = true
		default:
			users[u.ID] = u.Verified
		}
	}
	verified := 0
	for _, tw := range out.Data {
		if users[tw.AuthorID] {
			verified++
		}
	}
	return MentionResult{Checked: true, VerifiedMentions: verified, TotalMentions: len(out.Data)}, nil
}

// ---------- keyword helpers ----------

var keywordStop = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"is": true, "was": true, "are": true,
}

var keywordRe = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// topKeywords picks the most frequent non-stopwords, ties broken by
// first appearance so the derived query is deterministic.
func topKeywords(text string, n int) []string {
	words := keywordRe.FindAllString(strings.ToLower(text), -1)
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, w := range words {
		if keywordStop[w] {
			continue
		}
		if _, seen := counts[w]; !seen {
			first[w] = i
		}
		counts[w]++
	}
	uniq := make([]string, 0, len(counts))
	for w := range counts {
		uniq = append(uniq, w)
	}
	sort.Slice(uniq, func(i, j int) bool {
		if counts[uniq[i]] != counts[uniq[j]] {
			return counts[uniq[i]] > counts[uniq[j]]
		}
		return first[uniq[i]] < first[uniq[j]]
	})
	if len(uniq) > n {
		uniq = uniq[:n]
	}
	return uniq
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
