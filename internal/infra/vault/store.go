// Package vault reads and writes markdown notes in a directory tree.
package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"devotional-voice/internal/domain"
)

const readConcurrency = 8

type Store struct {
	dir       string
	whitelist []string
	logger    *slog.Logger
}

// NewStore opens the vault rooted at dir. Whitelist entries are folder
// prefixes relative to dir; an empty whitelist searches every note.
func NewStore(dir string, whitelist []string, logger *slog.Logger) *Store {
	var folders []string
	for _, f := range whitelist {
		if f = strings.TrimSpace(f); f != "" {
			folders = append(folders, filepath.ToSlash(f))
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Store{
		dir:       dir,
		whitelist: folders,
		logger:    logger,
	}
}

// Load reads every whitelisted markdown note, ordered by path.
func (s *Store) Load(ctx context.Context) ([]domain.Document, error) {
	paths, err := s.walk()
	if err != nil {
		return nil, fmt.Errorf("walking vault: %w", err)
	}

	docs := make([]domain.Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("reading note %s: %w", rel, err)
			}
			docs[i] = domain.Document{ID: rel, Text: string(data)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("vault loaded", "notes", len(docs))
	return docs, nil
}

func (s *Store) walk() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.dir {
			return nil
		}

		// Skip hidden files and folders such as .obsidian and .trash
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || strings.ToLower(filepath.Ext(p)) != ".md" {
			return nil
		}

		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if s.whitelisted(rel) {
			paths = append(paths, rel)
		}
		return nil
	})

	return paths, err
}

func (s *Store) whitelisted(rel string) bool {
	if len(s.whitelist) == 0 {
		return true
	}
	for _, folder := range s.whitelist {
		if strings.HasPrefix(rel, folder) {
			return true
		}
	}
	return false
}

// Read returns the content of the note at rel.
func (s *Store) Read(_ context.Context, rel string) (string, error) {
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("reading note: %w", err)
	}
	return string(data), nil
}

// Append adds text at the end of the note at rel, creating it if needed.
func (s *Store) Append(_ context.Context, rel, text string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating note folder: %w", err)
	}

	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening note: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return fmt.Errorf("appending to note: %w", err)
	}
	return nil
}

// WriteFile stores a binary attachment at rel.
func (s *Store) WriteFile(_ context.Context, rel string, data []byte) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("creating attachment folder: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("writing attachment: %w", err)
	}
	return nil
}

// resolve maps a vault-relative (or absolute, in-vault) path to the file system.
func (s *Store) resolve(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", p, err)
		}
		p = rel
	}
	p = filepath.FromSlash(path.Clean(filepath.ToSlash(p)))
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("path %q is outside the vault", p)
	}
	return filepath.Join(s.dir, p), nil
}
