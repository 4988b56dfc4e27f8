//go:build !portaudio

package audio

import (
	"context"
	"errors"
	"log/slog"
)

var errNoMicrophone = errors.New("microphone capture needs a build with -tags portaudio")

// MicrophoneSource is a placeholder in builds without portaudio. Every
// operation except Stop reports errNoMicrophone.
type MicrophoneSource struct{}

func NewMicrophoneSource(_, _ int, _ *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{}
}

func (*MicrophoneSource) Name() string { return "microphone" }
func (*MicrophoneSource) Start(context.Context) error { return errNoMicrophone }
func (*MicrophoneSource) Stop() error { return nil }
func (*MicrophoneSource) NextCommand(context.Context) ([]byte, error) { return nil, errNoMicrophone }
