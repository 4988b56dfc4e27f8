//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Player writes WAV audio to the default output device.
type Player struct {
	logger *slog.Logger
}

func NewPlayer(logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

func (p *Player) Play(ctx context.Context, data []byte) error {
	c, err := decodeClip(data)
	if err != nil {
		return err
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	out := make([]int16, framesPerBuffer*c.channels)
	stream, err := portaudio.OpenDefaultStream(0, c.channels, float64(c.sampleRate), framesPerBuffer, out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	p.logger.Debug("playing", "samples", len(c.samples), "sample_rate", c.sampleRate)

	for pos := 0; pos < len(c.samples); pos += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, c.samples[pos:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
	}
	return nil
}
