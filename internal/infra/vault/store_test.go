package vault_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"devotional-voice/internal/infra/vault"
)

func writeNotes(t *testing.T, dir string, notes map[string]string) {
	t.Helper()
	for rel, content := range notes {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("creating folder: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("writing note: %v", err)
		}
	}
}

func TestStore_Load(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	writeNotes(t, dir, map[string]string{
		"묵상일지/2024-01-02.md":   "second",
		"묵상일지/2024-01-01.md":   "first",
		"projects/todo.md":     "todo",
		"root.MD":              "root",
		"image.png":            "binary",
		".obsidian/config.md":  "hidden",
		"묵상일지/.draft.md":       "hidden draft",
	})

	store := vault.NewStore(dir, nil, logger)

	docs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	want := []string{"projects/todo.md", "root.MD", "묵상일지/2024-01-01.md", "묵상일지/2024-01-02.md"}
	if !slices.Equal(ids, want) {
		t.Errorf("ids: got %v, want %v", ids, want)
	}
	if docs[2].Text != "first" {
		t.Errorf("text: got %q", docs[2].Text)
	}
}

func TestStore_LoadWhitelist(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	writeNotes(t, dir, map[string]string{
		"묵상일지/a.md":  "a",
		"projects/b.md": "b",
		"sermons/c.md":  "c",
	})

	store := vault.NewStore(dir, []string{" 묵상일지/ ", "", "sermons"}, logger)

	docs, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if len(docs) != 2 || docs[0].ID != "sermons/c.md" || docs[1].ID != "묵상일지/a.md" {
		t.Errorf("docs: %+v", docs)
	}
}

func TestStore_ReadAppendWrite(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	ctx := context.Background()

	writeNotes(t, dir, map[string]string{"journal/today.md": "# Today"})

	store := vault.NewStore(dir, nil, logger)

	if err := store.Append(ctx, "journal/today.md", "\nmore"); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	got, err := store.Read(ctx, filepath.Join(dir, "journal", "today.md"))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if got != "# Today\nmore" {
		t.Errorf("content: got %q", got)
	}

	if err := store.Append(ctx, "new/created.md", "fresh"); err != nil {
		t.Fatalf("Append to new note: %v", err)
	}
	if got, _ := store.Read(ctx, "new/created.md"); got != "fresh" {
		t.Errorf("new note: got %q", got)
	}

	if err := store.WriteFile(ctx, "journal/audio.wav", []byte("RIFF")); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "journal", "audio.wav")); string(data) != "RIFF" {
		t.Errorf("attachment: got %q", data)
	}
}

func TestStore_RejectsEscapingPaths(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := vault.NewStore(t.TempDir(), nil, logger)

	if _, err := store.Read(context.Background(), "../outside.md"); err == nil {
		t.Error("expected error for path outside the vault")
	}
	if err := store.Append(context.Background(), "/etc/passwd", "x"); err == nil {
		t.Error("expected error for absolute path outside the vault")
	}
}
