//go:build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Player stub when portaudio is not available. It still validates the audio.
type Player struct {
	logger *slog.Logger
}

func NewPlayer(logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

func (p *Player) Play(_ context.Context, data []byte) error {
	if _, err := decodeClip(data); err != nil {
		return err
	}
	return fmt.Errorf("audio playback not available: rebuild with -tags portaudio")
}
