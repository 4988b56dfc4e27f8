//go:build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"devotional-voice/internal/pcm"
)

const (
	framesPerBuffer  = 1024
	silenceThreshold = int16(500)
)

// MicrophoneSource records one utterance per command from the default input
// device. Recording stops after a second of silence or at maxSeconds.
type MicrophoneSource struct {
	stream     *portaudio.Stream
	frames     []int16
	sampleRate int
	maxSeconds int
	logger     *slog.Logger
}

func NewMicrophoneSource(sampleRate, maxSeconds int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		logger:     logger,
		frames:     make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(m.frames), m.frames)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}
	m.stream = stream

	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	var err error
	if m.stream != nil {
		err = errors.Join(m.stream.Stop(), m.stream.Close())
		m.stream = nil
	}
	return errors.Join(err, portaudio.Terminate())
}

// NextCommand records until the speaker has been quiet for a second after
// talking, or until maxSeconds of audio has been captured.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	if m.stream == nil {
		return nil, errors.New("microphone not started")
	}
	m.logger.Info("🎤 recording, pause for a second to finish")

	limit := m.sampleRate * m.maxSeconds
	var (
		samples []int16
		quiet   int
	)

	for len(samples) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		loud := peak(m.frames) > silenceThreshold
		if !loud && len(samples) == 0 {
			continue
		}
		samples = append(samples, m.frames...)

		if loud {
			quiet = 0
		} else if quiet += len(m.frames); quiet > m.sampleRate {
			break
		}
	}

	clip := pcm.EncodeSamples(samples, m.sampleRate)
	if d, err := pcm.Duration(clip); err == nil {
		m.logger.Info("recording finished", "duration", d.Round(time.Millisecond))
	}
	return clip, nil
}

func peak(frames []int16) int16 {
	var p int16
	for _, s := range frames {
		if s < 0 {
			s = -(s + 1)
		}
		p = max(p, s)
	}
	return p
}
