package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
)

type clip struct {
	samples    []int16
	sampleRate int
	channels   int
}

// decodeClip reads a WAV file into interleaved 16-bit samples.
func decodeClip(data []byte) (clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return clip{}, fmt.Errorf("invalid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return clip{}, fmt.Errorf("decoding wav: %w", err)
	}

	depth := int(dec.BitDepth)
	shift := depth - 16
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		// 8-bit WAV is unsigned with silence at 128.
		if depth == 8 {
			v -= 128
		}
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		samples[i] = int16(v)
	}

	return clip{
		samples:    samples,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
	}, nil
}
