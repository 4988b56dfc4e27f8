package pushover

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devotional-voice/internal/infra"
)

const (
	defaultBaseURL = "https://api.pushover.net/1"
	appTitle       = "Devotional Voice"
	maxMessage     = 1024
)

// Client sends push notifications through the Pushover messages API.
type Client struct {
	token      string
	userKey    string
	endpoint   string
	httpClient *http.Client
}

func NewClient(token, userKey string) *Client {
	return NewClientWithURL(token, userKey, defaultBaseURL)
}

func NewClientWithURL(token, userKey, baseURL string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/messages.json",
		httpClient: infra.NewHTTPClient(10 * time.Second),
	}
}

type reply struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
}

// Notify is a no-op until both the app token and the user key are set.
func (c *Client) Notify(ctx context.Context, message string) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}

	form := url.Values{
		"token":   {c.token},
		"user":    {c.userKey},
		"title":   {appTitle},
		"message": {truncate(message, maxMessage)},
	}.Encode()

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
		if err != nil {
			return infra.Permanent(fmt.Errorf("pushover: creating request: %w", err))
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("pushover: sending notification: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode != http.StatusOK {
			var r reply
			if json.Unmarshal(body, &r) == nil && len(r.Errors) > 0 {
				body = []byte(strings.Join(r.Errors, "; "))
			}
			return infra.StatusError("pushover", resp.StatusCode, body)
		}
		return nil
	})
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
