package application

import (
	"context"

	"devotional-voice/internal/domain"
)

// Generator writes a devotional for the user's input, grounded on the
// related notes found in the vault.
type Generator interface {
	Generate(ctx context.Context, input string, references []domain.SearchResult) (*domain.Devotional, error)
}
