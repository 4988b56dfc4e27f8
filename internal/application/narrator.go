package application

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/metrics"
	"devotional-voice/internal/pcm"
	"devotional-voice/internal/script"
)

type Synthesizer interface {
	// Name identifies the provider and voice. Audio is cached per name.
	Name() string
	Synthesize(ctx context.Context, text string) (domain.PCM, error)
}

type AudioCache interface {
	GetOrCompute(ctx context.Context, id string, compute func() ([]byte, error)) ([]byte, bool, error)
}

// Narrator turns a narration script into a single WAV file. Long scripts are
// synthesized sentence group by sentence group and joined before encoding.
type Narrator struct {
	synth    Synthesizer
	cache    AudioCache
	maxChunk int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewNarrator builds a narrator. cache may be nil. maxChunk is the largest
// piece of script, in characters, sent to the provider at once.
func NewNarrator(synth Synthesizer, cache AudioCache, maxChunk int, m *metrics.Metrics, logger *slog.Logger) *Narrator {
	return &Narrator{
		synth:    synth,
		cache:    cache,
		maxChunk: maxChunk,
		metrics:  m,
		logger:   logger,
	}
}

func (n *Narrator) Narrate(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrNoScript
	}

	start := time.Now()

	if n.cache == nil {
		wav, err := n.synthesize(ctx, text)
		n.metrics.Stage("synthesize", time.Since(start).Seconds(), err)
		return wav, err
	}

	wav, hit, err := n.cache.GetOrCompute(ctx, n.synth.Name()+"|"+text, func() ([]byte, error) {
		return n.synthesize(ctx, text)
	})
	if hit {
		n.metrics.CacheHits.Inc()
		n.logger.Debug("narration served from cache", "bytes", len(wav))
		return wav, nil
	}
	n.metrics.CacheMisses.Inc()
	n.metrics.Stage("synthesize", time.Since(start).Seconds(), err)
	return wav, err
}

func (n *Narrator) synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := script.Chunk(text, n.maxChunk)

	var (
		data     bytes.Buffer
		mimeType string
	)

	for i, chunk := range chunks {
		audio, err := n.synth.Synthesize(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("synthesizing part %d/%d: %w", i+1, len(chunks), err)
		}
		if len(audio.Data) == 0 {
			return nil, fmt.Errorf("synthesizing part %d/%d: %w", i+1, len(chunks), domain.ErrNoAudio)
		}
		if i == 0 {
			mimeType = audio.MimeType
		} else if audio.MimeType != mimeType {
			return nil, fmt.Errorf("part %d/%d is %q, expected %q", i+1, len(chunks), audio.MimeType, mimeType)
		}
		data.Write(audio.Data)
	}

	wav := pcm.EncodeWAV(data.Bytes(), pcm.ParseFormat(mimeType))
	n.metrics.SynthesizedBytes.Add(float64(len(wav)))

	n.logger.Info("synthesized narration",
		"provider", n.synth.Name(),
		"parts", len(chunks),
		"mime", mimeType,
		"bytes", len(wav),
	)
	return wav, nil
}
