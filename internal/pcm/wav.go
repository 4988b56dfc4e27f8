// Package pcm wraps raw linear PCM audio into WAV containers.
package pcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// HeaderSize is the length of the canonical RIFF/WAVE header written by EncodeWAV.
const HeaderSize = 44

const (
	DefaultBitsPerSample = 16
	DefaultSampleRate    = 24000

	channels  = 1
	formatPCM = 1
)

// Format describes mono PCM samples.
type Format struct {
	BitsPerSample int
	SampleRate    int
}

func DefaultFormat() Format {
	return Format{
		BitsPerSample: DefaultBitsPerSample,
		SampleRate:    DefaultSampleRate,
	}
}

// MimeType renders the format in the audio/L<bits>;rate=<hz> form.
func (f Format) MimeType() string {
	return fmt.Sprintf("audio/L%d;rate=%d", f.BitsPerSample, f.SampleRate)
}

// ParseFormat reads bit depth and sample rate from a descriptor such as
// "audio/L16;rate=24000". Fields that are missing or do not parse to a
// positive integer keep their defaults.
func ParseFormat(mimeType string) Format {
	f := DefaultFormat()

	for _, param := range strings.Split(mimeType, ";") {
		trimmed := strings.TrimSpace(param)
		switch {
		case strings.HasPrefix(strings.ToLower(trimmed), "rate="):
			if v, ok := positiveInt(trimmed[len("rate="):]); ok {
				f.SampleRate = v
			}
		case strings.HasPrefix(trimmed, "audio/L"):
			if v, ok := positiveInt(trimmed[len("audio/L"):]); ok {
				f.BitsPerSample = v
			}
		}
	}

	return f
}

func positiveInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// EncodeWAV prepends a 44-byte mono WAV header to data. The payload is copied
// verbatim, so the result is always HeaderSize+len(data) bytes long.
func EncodeWAV(data []byte, f Format) []byte {
	dataSize := uint32(len(data))
	blockAlign := uint16(channels * f.BitsPerSample / 8)
	byteRate := uint32(uint64(f.SampleRate) * channels * uint64(f.BitsPerSample) / 8)

	out := make([]byte, HeaderSize+len(data))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], uint16(f.BitsPerSample))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)

	copy(out[HeaderSize:], data)

	return out
}

// EncodeSamples encodes 16-bit samples as little-endian PCM inside a WAV container.
func EncodeSamples(samples []int16, sampleRate int) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return EncodeWAV(data, Format{BitsPerSample: 16, SampleRate: sampleRate})
}

// Duration decodes the header of a WAV file and returns its playing time.
func Duration(data []byte) (time.Duration, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("reading wav duration: %w", err)
	}
	return d, nil
}
