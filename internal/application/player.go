package application

import "context"

// Player plays a WAV file to the end or until ctx is cancelled.
type Player interface {
	Play(ctx context.Context, wav []byte) error
}
