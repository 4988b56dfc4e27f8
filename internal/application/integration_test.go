package application_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"devotional-voice/internal/application"
	"devotional-voice/internal/infra/audio"
	"devotional-voice/internal/infra/cache"
	"devotional-voice/internal/infra/gemini"
	"devotional-voice/internal/infra/vault"
	"devotional-voice/internal/metrics"
	"devotional-voice/internal/note"
)

// fakeGemini answers generateContent for both the text and the TTS model.
func fakeGemini(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()

	var (
		mu      sync.Mutex
		prompts []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		mu.Lock()
		prompts = append(prompts, req.Contents[0].Parts[0].Text)
		mu.Unlock()

		var part map[string]any
		if strings.Contains(r.URL.Path, "tts") {
			part = map[string]any{"inlineData": map[string]string{
				"mimeType": "audio/L16;codec=pcm;rate=24000",
				"data":     base64.StdEncoding.EncodeToString([]byte{1, 0, 2, 0, 3, 0}),
			}}
		} else {
			answer, _ := json.Marshal(map[string]string{
				"markdown":  "## 감사의 고백\n주님께 감사드립니다.",
				"ttsScript": "주님께 감사드립니다.",
			})
			part = map[string]any{"text": "```json\n" + string(answer) + "\n```"}
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{part}}},
			},
		})
	}))
	t.Cleanup(server.Close)

	return server, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), prompts...)
	}
}

func TestIntegration_FileDropToSavedAudio(t *testing.T) {
	vaultDir := t.TempDir()
	inbox := t.TempDir()
	logger := discardLogger()

	notes := map[string]string{
		"묵상일지/2024-03-01.md": "오늘 감사 기도를 드렸다.",
		"설교/은혜.md":            "은혜와 감사",
		".obsidian/workspace.md": "감사 감사 감사",
	}
	for rel, content := range notes {
		full := filepath.Join(vaultDir, rel)
		os.MkdirAll(filepath.Dir(full), 0755)
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("writing note: %v", err)
		}
	}

	server, prompts := fakeGemini(t)
	m := metrics.New()

	store := vault.NewStore(vaultDir, nil, logger)
	generator := gemini.NewClientWithURL("test-key", "gemini-2.0-flash", "", server.URL)
	synth := gemini.NewSpeechClientWithURL("test-key", "gemini-tts", "Kore", server.URL)
	narrator := application.NewNarrator(synth, cache.NewMemory(logger), 1500, m, logger)

	assistant := application.NewAssistant(application.Dependencies{
		Notes:     store,
		Generator: generator,
		Narrator:  narrator,
		Metrics:   m,
	}, application.Config{MaxResults: 5, JournalNote: "journal/today.md"}, logger)

	if err := os.WriteFile(filepath.Join(inbox, "thought.txt"), []byte("감사 기도"), 0644); err != nil {
		t.Fatalf("writing drop file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- assistant.Run(ctx, audio.NewFileSource(inbox))
	}()

	journal := filepath.Join(vaultDir, "journal", "today.md")
	deadline := time.Now().Add(5 * time.Second)
	for {
		if data, err := os.ReadFile(journal); err == nil && strings.Contains(string(data), "TTS-SCRIPT") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for the journal note")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	<-done

	content, _ := os.ReadFile(journal)
	for _, want := range []string{
		"## 📖 묵상 (",
		"## 감사의 고백\n주님께 감사드립니다.",
		"- [[2024-03-01]]\n- [[은혜]]\n",
		"%%TTS-SCRIPT:주님께 감사드립니다.%%",
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("journal missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(string(content), "workspace") {
		t.Error("hidden notes must not be referenced")
	}

	if sent := prompts(); len(sent) == 0 || !strings.Contains(sent[0], "### 관련 노트 1: 2024-03-01\n") {
		t.Errorf("prompt context missing related note")
	}

	audioPath, err := assistant.SaveAudio(context.Background(), "journal/today.md")
	if err != nil {
		t.Fatalf("SaveAudio error: %v", err)
	}

	wav, err := os.ReadFile(filepath.Join(vaultDir, filepath.FromSlash(audioPath)))
	if err != nil {
		t.Fatalf("reading saved audio: %v", err)
	}
	if len(wav) != 44+6 || string(wav[8:12]) != "WAVE" {
		t.Errorf("saved audio: %d bytes", len(wav))
	}

	updated, _ := os.ReadFile(journal)
	if !strings.HasSuffix(string(updated), note.AudioEmbed(filepath.Base(audioPath))) {
		t.Errorf("audio embed missing:\n%s", updated)
	}

	// The same script is served from the cache the second time.
	if _, err := assistant.SaveAudio(context.Background(), "journal/today.md"); err != nil {
		t.Fatalf("second SaveAudio error: %v", err)
	}
	ttsCalls := 0
	for _, p := range prompts() {
		if p == "주님께 감사드립니다." {
			ttsCalls++
		}
	}
	if ttsCalls != 1 {
		t.Errorf("tts calls: got %d, want 1", ttsCalls)
	}
}
