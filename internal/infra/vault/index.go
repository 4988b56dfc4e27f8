package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"devotional-voice/internal/domain"
)

// Index keeps the vault's notes in memory between searches and reloads them
// on Sync, after every write, or periodically.
type Index struct {
	store  *Store
	load   func(context.Context) ([]domain.Document, error)
	logger *slog.Logger

	mu     sync.RWMutex
	docs   []domain.Document
	synced bool
	// gen counts writes. A load that overlaps a write is not stored.
	gen uint64
}

func NewIndex(store *Store, logger *slog.Logger) *Index {
	return &Index{
		store:  store,
		load:   store.Load,
		logger: logger,
	}
}

func (x *Index) Sync(ctx context.Context) error {
	_, err := x.refresh(ctx)
	return err
}

// refresh loads the vault and stores the result unless a write happened
// meanwhile. The loaded notes are returned either way.
func (x *Index) refresh(ctx context.Context) ([]domain.Document, error) {
	x.mu.RLock()
	gen := x.gen
	x.mu.RUnlock()

	docs, err := x.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("syncing vault index: %w", err)
	}

	x.mu.Lock()
	stored := x.gen == gen
	if stored {
		x.docs = docs
		x.synced = true
	}
	x.mu.Unlock()

	if stored {
		x.logger.Info("vault index synced", "notes", len(docs))
	} else {
		x.logger.Debug("vault changed during sync, snapshot discarded", "notes", len(docs))
	}
	return docs, nil
}

// Load returns the indexed notes, syncing first when the index is stale.
func (x *Index) Load(ctx context.Context) ([]domain.Document, error) {
	x.mu.RLock()
	if x.synced {
		result := make([]domain.Document, len(x.docs))
		copy(result, x.docs)
		x.mu.RUnlock()
		return result, nil
	}
	x.mu.RUnlock()

	return x.refresh(ctx)
}

func (x *Index) Read(ctx context.Context, rel string) (string, error) {
	return x.store.Read(ctx, rel)
}

func (x *Index) Append(ctx context.Context, rel, text string) error {
	defer x.invalidate()
	return x.store.Append(ctx, rel, text)
}

func (x *Index) WriteFile(ctx context.Context, rel string, data []byte) error {
	return x.store.WriteFile(ctx, rel, data)
}

func (x *Index) invalidate() {
	x.mu.Lock()
	x.gen++
	x.synced = false
	x.mu.Unlock()
}

func (x *Index) StartPeriodicSync(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := x.Sync(ctx); err != nil {
					x.logger.Error("periodic vault sync failed", "error", err)
				}
			}
		}
	}()
}
