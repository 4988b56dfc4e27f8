package application

import "context"

// AudioSource delivers one command at a time: recorded audio, or text
// prefixed with domain.TextCommandPrefix.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
