package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra"
	"devotional-voice/internal/pcm"
)

const defaultVoice = "nova"

// pcmFormat is what /audio/speech returns for response_format=pcm.
var pcmFormat = pcm.Format{BitsPerSample: 16, SampleRate: 24000}

type SpeechClient struct {
	apiKey     string
	model      string
	voice      string
	endpoint   string
	httpClient *http.Client
}

func NewSpeechClient(apiKey, voice string) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, voice, openAIBaseURL)
}

func NewSpeechClientWithURL(apiKey, voice, baseURL string) *SpeechClient {
	if voice == "" {
		voice = defaultVoice
	}
	return &SpeechClient{
		apiKey:     apiKey,
		model:      "tts-1",
		voice:      voice,
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/audio/speech",
		httpClient: infra.NewHTTPClient(infra.DefaultTimeout),
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func (c *SpeechClient) Name() string {
	return string(domain.TTSProviderOpenAI) + ":" + c.voice
}

// Synthesize asks for raw pcm so the result can be wrapped like Gemini audio.
func (c *SpeechClient) Synthesize(ctx context.Context, text string) (domain.PCM, error) {
	if c.apiKey == "" {
		return domain.PCM{}, fmt.Errorf("openai tts: %w", domain.ErrAPIKeyMissing)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	data, err := infra.PostJSON(ctx, c.httpClient, "openai tts", c.endpoint, header, speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return domain.PCM{}, err
	}
	if len(data) == 0 {
		return domain.PCM{}, fmt.Errorf("openai tts: %w", domain.ErrNoAudio)
	}

	return domain.PCM{Data: data, MimeType: pcmFormat.MimeType()}, nil
}
