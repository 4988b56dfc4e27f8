package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	groqBaseURL   = "https://api.groq.com/openai/v1"
)

var transcriptionModels = map[domain.STTProvider]string{
	domain.STTProviderOpenAI: "whisper-1",
	domain.STTProviderGroq:   "whisper-large-v3",
}

type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
}

// NewWhisperClient returns a transcription client for OpenAI or Groq, which
// serve the same Whisper API shape.
func NewWhisperClient(provider domain.STTProvider, apiKey, language string) (*WhisperClient, error) {
	switch provider {
	case domain.STTProviderOpenAI:
		return NewWhisperClientWithURL(apiKey, transcriptionModels[provider], language, openAIBaseURL), nil
	case domain.STTProviderGroq:
		return NewWhisperClientWithURL(apiKey, transcriptionModels[provider], language, groqBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: stt provider %q", domain.ErrUnsupportedProvider, provider)
	}
}

func NewWhisperClientWithURL(apiKey, model, language, baseURL string) *WhisperClient {
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		language:   language,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("transcription: %w", domain.ErrAPIKeyMissing)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("transcription: %w", domain.ErrEmptyInput)
	}

	form, contentType, err := c.encodeForm(audio)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	var result transcriptionResponse
	err = infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bytes.NewReader(form))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return infra.StatusError("whisper", resp.StatusCode, body)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Text), nil
}

// encodeForm builds the multipart upload once so retries resend the same bytes.
func (c *WhisperClient) encodeForm(audio []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fileName, mimeType := describeAudio(audio)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}

	fields := [][2]string{{"model", c.model}, {"response_format", "json"}}
	if c.language != "" && c.language != "auto" {
		fields = append(fields, [2]string{"language", c.language})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing %s field: %w", f[0], err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// describeAudio names the upload after its container. Unknown data is sent
// as WebM, which is what browsers record.
func describeAudio(audio []byte) (string, string) {
	switch {
	case len(audio) >= 12 && string(audio[0:4]) == "RIFF" && string(audio[8:12]) == "WAVE":
		return "audio.wav", "audio/wav"
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "audio.ogg", "audio/ogg"
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) >= 2 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return "audio.mp3", "audio/mpeg"
	case len(audio) >= 8 && string(audio[4:8]) == "ftyp":
		return "audio.m4a", "audio/mp4"
	default:
		return "recording.webm", "audio/webm"
	}
}
