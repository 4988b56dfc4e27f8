package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra"
	"devotional-voice/internal/prompt"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls generateContent. The same client backs text generation and,
// through SpeechClient, narration.
type Client struct {
	apiKey     string
	model      string
	template   string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model, template string) *Client {
	return NewClientWithURL(apiKey, model, template, defaultBaseURL)
}

func NewClientWithURL(apiKey, model, template, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		model:      strings.TrimPrefix(model, "models/"),
		template:   template,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: infra.NewHTTPClient(infra.DefaultTimeout),
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens    int           `json:"maxOutputTokens,omitempty"`
	Temperature        float64       `json:"temperature,omitempty"`
	ResponseMimeType   string        `json:"response_mime_type,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig  voiceConfig `json:"voiceConfig"`
	LanguageCode string      `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (r *response) parts() []part {
	if len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Content.Parts
}

// Generate writes a devotional for input, grounded on the related notes.
func (c *Client) Generate(ctx context.Context, input string, references []domain.SearchResult) (*domain.Devotional, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", domain.ErrAPIKeyMissing)
	}

	reqBody := request{
		Contents: []content{
			{Parts: []part{{Text: prompt.Build(c.template, input, references)}}},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  8192,
			Temperature:      0.7,
			ResponseMimeType: "application/json",
		},
	}

	result, err := c.generateContent(ctx, c.model, reqBody)
	if err != nil {
		return nil, err
	}

	text := "{}"
	if parts := result.parts(); len(parts) > 0 && parts[0].Text != "" {
		text = parts[0].Text
	}

	devotional := prompt.ParseResponse(text)
	return &devotional, nil
}

func (c *Client) generateContent(ctx context.Context, model string, reqBody request) (*response, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, model, url.QueryEscape(c.apiKey))

	var result response
	if err := infra.DecodeJSON(ctx, c.httpClient, "gemini", endpoint, nil, reqBody, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("gemini error %d: %s", result.Error.Code, result.Error.Message)
	}
	return &result, nil
}
