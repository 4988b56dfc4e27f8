package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"devotional-voice/internal/domain"
)

const (
	defaultSpeechModel = "gemini-2.5-flash-preview-tts"
	defaultVoice       = "Kore"
)

// SpeechClient synthesizes narration through the Gemini TTS models, which
// answer with base64 raw PCM.
type SpeechClient struct {
	*Client
	voice    string
	language string
}

func NewSpeechClient(apiKey, model, voice string) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, model, voice, defaultBaseURL)
}

func NewSpeechClientWithURL(apiKey, model, voice, baseURL string) *SpeechClient {
	if model == "" || model == "models/" {
		model = defaultSpeechModel
	}
	if voice == "" {
		voice = defaultVoice
	}
	return &SpeechClient{
		Client: NewClientWithURL(apiKey, model, "", baseURL),
		voice:  voice,
	}
}

// WithLanguage sets the BCP-47 language of the narration, e.g. ko-KR.
func (c *SpeechClient) WithLanguage(code string) *SpeechClient {
	c.language = code
	return c
}

// Name identifies the model, voice and language, which all change the audio.
func (c *SpeechClient) Name() string {
	return strings.Join([]string{string(domain.TTSProviderGemini), c.model, c.voice, c.language}, ":")
}

func (c *SpeechClient) Synthesize(ctx context.Context, text string) (domain.PCM, error) {
	if c.apiKey == "" {
		return domain.PCM{}, fmt.Errorf("gemini tts: %w", domain.ErrAPIKeyMissing)
	}

	reqBody := request{
		Contents: []content{
			{Parts: []part{{Text: text}}},
		},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.voice},
				},
				LanguageCode: c.language,
			},
		},
	}

	result, err := c.generateContent(ctx, c.model, reqBody)
	if err != nil {
		return domain.PCM{}, err
	}

	if len(result.Candidates) == 0 {
		return domain.PCM{}, fmt.Errorf("invalid gemini response format")
	}

	for _, p := range result.parts() {
		if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "audio/") {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return domain.PCM{}, fmt.Errorf("decoding audio data: %w", err)
		}
		return domain.PCM{Data: data, MimeType: p.InlineData.MimeType}, nil
	}

	return domain.PCM{}, fmt.Errorf("gemini tts: %w", domain.ErrNoAudio)
}
