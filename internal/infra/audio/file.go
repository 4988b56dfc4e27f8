package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"devotional-voice/internal/domain"
)

type dropKind int

const (
	dropIgnored dropKind = iota
	dropRecording
	dropText
)

func classify(name string) dropKind {
	if strings.HasPrefix(name, ".") {
		return dropIgnored
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".mp3", ".m4a", ".webm", ".ogg":
		return dropRecording
	case ".txt", ".md":
		return dropText
	default:
		return dropIgnored
	}
}

// FileSource watches a drop directory. Recordings become voice input; .txt
// and .md files become text input. Files are taken in name order and renamed
// with a .processed suffix once read.
type FileSource struct {
	dir      string
	interval time.Duration

	mu   sync.Mutex
	seen map[string]bool
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:      dir,
		interval: 500 * time.Millisecond,
		seen:     make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating drop dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		data, err := f.take()
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
	}
}

// take returns the first unread drop, or nil when there is none.
func (f *FileSource) take() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading drop dir: %w", err)
	}

	for _, entry := range entries {
		kind := classify(entry.Name())
		if entry.IsDir() || kind == dropIgnored {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.seen[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading drop %s: %w", entry.Name(), err)
		}
		f.seen[path] = true
		// A failed rename still leaves the path in seen.
		_ = os.Rename(path, path+".processed")

		if kind == dropRecording {
			return data, nil
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			return []byte(domain.TextCommandPrefix + text), nil
		}
	}

	return nil, nil
}
