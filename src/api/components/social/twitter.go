package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TwitterSource samples recent posts with engagement and author
// metadata for the behaviour metrics.

type TwitterSource struct {
	bearer string
	client *http.Client
}

// NewTwitterSource returns nil when no bearer token is configured.
func NewTwitterSource(bearer string) *TwitterSource {
	if bearer == "" {
		return nil
	}
	return &TwitterSource{bearer: bearer, client: &http.Client{Timeout: 8 * time.Second}}
}

func (t *TwitterSource) Recent(ctx context.Context, query string) ([]Reaction, error) {
	params := url.Values{}
	params.Set("query", query+" -is:retweet")
	params.Set("max_results", "50")
	params.Set("tweet.fields", "public_metrics,created_at,author_id")
	params.Set("user.fields", "verified,public_metrics")
	params.Set("expansions", "author_id")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.twitter.com/2/tweets/search/recent?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.bearer)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter: status %d", resp.StatusCode)
	}

	var out struct {
		Data []struct {
			Text          string `json:"text"`
			AuthorID      string `json:"author_id"`
			PublicMetrics struct {
				LikeCount    int `json:"like_count"`
				RetweetCount int `json:"retweet_count"`
				ReplyCount   int `json:"reply_count"`
			} `json:"public_metrics"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID            string `json:"id"`
				Verified      bool   `json:"verified"`
				PublicMetrics struct {
					FollowersCount int `json:"followers_count"`
					FollowingCount int `json:"following_count"`
				} `json:"public_metrics"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	type author struct {
		verified             bool
		followers, following int
	}
	users := make(map[string]author, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		users[u.ID] = author{u.Verified, u.PublicMetrics.FollowersCount, u.PublicMetrics.FollowingCount}
	}

	reactions := make([]Reaction, 0, len(out.Data))
	for _, tw := range out.Data {
		a := users[tw.AuthorID]
		followers, following := a.followers, a.following
		if followers == 0 {
			followers = 1
		}
		if following == 0 {
			following = 1
		}
		reactions = append(reactions, Reaction{
			Text:      tw.Text,
			Likes:     tw.PublicMetrics.LikeCount,
			Retweets:  tw.PublicMetrics.RetweetCount,
			Replies:   tw.PublicMetrics.ReplyCount,
			Verified:  a.verified,
			Followers: followers,
			Following: following,
		})
	}
	return reactions, nil
}
