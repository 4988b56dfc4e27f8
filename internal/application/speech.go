package application

import (
	"context"
	"fmt"

	"devotional-voice/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT stands in when no transcription key is configured. Text commands
// still work; audio fails with a hint naming KeyName.
type NoopSTT struct {
	KeyName string
}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte) (string, error) {
	key := n.KeyName
	if key == "" {
		key = "stt.groq_api_key or stt.openai_api_key"
	}
	return "", fmt.Errorf("speech-to-text not configured: set %s to enable voice input: %w", key, domain.ErrAPIKeyMissing)
}
