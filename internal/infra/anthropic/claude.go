package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra"
	"devotional-voice/internal/prompt"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-20250514"
	apiVersion     = "2023-06-01"
)

// ClaudeClient writes devotionals through the Messages API. The prompt asks
// for the same JSON object the Gemini generator returns.
type ClaudeClient struct {
	apiKey     string
	model      string
	template   string
	endpoint   string
	httpClient *http.Client
}

func NewClaudeClient(apiKey, model, template string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, template, defaultBaseURL)
}

func NewClaudeClientWithURL(apiKey, model, template, baseURL string) *ClaudeClient {
	if model == "" {
		model = defaultModel
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		model:      model,
		template:   template,
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/messages",
		httpClient: infra.NewHTTPClient(infra.DefaultTimeout),
	}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// text joins every text block of the reply.
func (r messagesResponse) text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		sb.WriteString(block.Text)
	}
	return sb.String()
}

func (c *ClaudeClient) Generate(ctx context.Context, input string, references []domain.SearchResult) (*domain.Devotional, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("claude: %w", domain.ErrAPIKeyMissing)
	}

	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("anthropic-version", apiVersion)

	var reply messagesResponse
	err := infra.DecodeJSON(ctx, c.httpClient, "claude", c.endpoint, header, messagesRequest{
		Model:       c.model,
		MaxTokens:   8192,
		Temperature: 0.7,
		Messages:    []chatMessage{{Role: "user", Content: prompt.Build(c.template, input, references)}},
	}, &reply)
	if err != nil {
		return nil, err
	}

	text := reply.text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("claude: empty reply (stop reason %q)", reply.StopReason)
	}

	devotional := prompt.ParseResponse(text)
	return &devotional, nil
}
