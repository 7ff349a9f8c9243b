package twitterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

const DefaultBaseURL = "https://api.tweetscout.io/v2"

// Client talks to the tweet-metadata/scoring API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// AccountInfo describes a social-media account as reported by the scoring API
type AccountInfo struct {
	Handle         string `json:"screen_name"`
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar"`
	FollowersCount int    `json:"followers_count"`
	RegisterDate   string `json:"register_date"`
}

// TweetInfo describes a single tweet
type TweetInfo struct {
	ID           string `json:"id_str"`
	Text         string `json:"full_text"`
	AuthorHandle string `json:"user_screen_name"`
	ReplyCount   int    `json:"reply_count"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewClient creates a new scoring API client
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// GetAccountInfo fetches account metadata for a handle
func (c *Client) GetAccountInfo(ctx context.Context, handle string) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.getJSON(ctx, "/info/"+url.PathEscape(handle), &info); err != nil {
		return nil, err
	}
	if info.Handle == "" {
		info.Handle = handle
	}
	return &info, nil
}

// GetAccountScore fetches the influence score for a handle
func (c *Client) GetAccountScore(ctx context.Context, handle string) (float64, error) {
	var resp scoreResponse
	if err := c.getJSON(ctx, "/score/"+url.PathEscape(handle), &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// GetTweetInfo fetches metadata for a tweet by its link
func (c *Client) GetTweetInfo(ctx context.Context, tweetLink string) (*TweetInfo, error) {
	var info TweetInfo
	path := "/tweet-info?tweet_link=" + url.QueryEscape(tweetLink)
	if err := c.getJSON(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// TweetIDFromLink extracts the numeric id from a tweet/x.com status link
func TweetIDFromLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid tweet link: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "status" && i+1 < len(parts) {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no status id in tweet link: %s", link)
}

// getJSON performs an authenticated GET with bounded retries on transient errors
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("ApiKey", c.apiKey)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				if err := json.Unmarshal(body, out); err != nil {
					return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
				}
				return nil
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("not found: %s", path))
			case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
				return fmt.Errorf("scoring API returned status %d", resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("scoring API returned status %d", resp.StatusCode))
			}
		},
		retry.Attempts(3),
		retry.Delay(1*time.Second),
		retry.Context(ctx),
	)
}
