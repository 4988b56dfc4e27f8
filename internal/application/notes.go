package application

import (
	"context"

	"devotional-voice/internal/domain"
)

// NoteStore reads and writes notes by vault-relative path.
type NoteStore interface {
	Load(ctx context.Context) ([]domain.Document, error)
	Read(ctx context.Context, path string) (string, error)
	Append(ctx context.Context, path, text string) error
	WriteFile(ctx context.Context, path string, data []byte) error
}

type Clipboard interface {
	Copy(ctx context.Context, text string) error
}
