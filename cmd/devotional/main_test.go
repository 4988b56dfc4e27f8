package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devotional-voice/config"
	"devotional-voice/internal/application"
	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra/pushover"
	"devotional-voice/internal/metrics"
)

func TestWrapPCM(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "speech.pcm")
	out := filepath.Join(dir, "speech.wav")

	if err := os.WriteFile(in, make([]byte, 48000), 0644); err != nil {
		t.Fatalf("writing pcm: %v", err)
	}

	opts := &options{in: in, out: out, mimeType: "audio/L16;rate=24000"}
	if err := wrapPCM(opts, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("wrapPCM error: %v", err)
	}

	wav, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(wav) != 44+48000 || string(wav[:4]) != "RIFF" {
		t.Errorf("wav: %d bytes", len(wav))
	}
}

func TestBuildSynthesizer(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"gemini", false},
		{"openai", false},
		{"google", true},
		{"espeak", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			synth, err := buildSynthesizer(config.TTSConfig{Provider: tt.provider})
			if tt.wantErr {
				if !errors.Is(err, domain.ErrUnsupportedProvider) {
					t.Errorf("expected ErrUnsupportedProvider, got %v", err)
				}
				return
			}
			if err != nil || synth == nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildGenerator(t *testing.T) {
	if _, err := buildGenerator(config.GenerationConfig{Provider: "gemini"}); err != nil {
		t.Errorf("gemini: %v", err)
	}
	if _, err := buildGenerator(config.GenerationConfig{Provider: "anthropic"}); err != nil {
		t.Errorf("anthropic: %v", err)
	}
	if _, err := buildGenerator(config.GenerationConfig{Provider: "llama"}); !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestBuildSTT_WithoutKey(t *testing.T) {
	stt, err := buildSTT(&config.Config{STT: config.STTConfig{Provider: "groq"}})
	if err != nil {
		t.Fatalf("buildSTT error: %v", err)
	}
	noop, ok := stt.(*application.NoopSTT)
	if !ok {
		t.Fatalf("expected NoopSTT, got %T", stt)
	}

	_, err = noop.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, domain.ErrAPIKeyMissing) || !strings.Contains(err.Error(), "stt.groq_api_key") {
		t.Errorf("hint should name the groq key: %v", err)
	}
}

func TestBuildSTT_UnknownProvider(t *testing.T) {
	for _, key := range []string{"", "k"} {
		cfg := &config.Config{STT: config.STTConfig{Provider: "azure", GroqAPIKey: key}}
		if _, err := buildSTT(cfg); !errors.Is(err, domain.ErrUnsupportedProvider) {
			t.Errorf("key %q: got %v, want ErrUnsupportedProvider", key, err)
		}
	}
}

func TestBuildAssistant_GoogleTTSDisablesNarration(t *testing.T) {
	enabled := true
	cfg := &config.Config{
		Vault:      config.VaultConfig{Dir: t.TempDir()},
		STT:        config.STTConfig{Provider: "groq"},
		Generation: config.GenerationConfig{Provider: "gemini"},
		TTS:        config.TTSConfig{Enabled: &enabled, Provider: "google"},
		Notify:     config.NotifyConfig{Backend: "none"},
	}

	assistant, err := buildAssistant(context.Background(), cfg, metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("buildAssistant error: %v", err)
	}

	if _, err := assistant.Narrate(context.Background(), "텍스트"); !errors.Is(err, domain.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "note", "daily.md")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"note":"daily.md"`) {
		t.Errorf("expected json warn record, got %s", out)
	}
}

func TestBuildNotifier(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		backend string
		check   func(application.Notifier) bool
	}{
		{"", func(n application.Notifier) bool { _, ok := n.(application.NoopNotifier); return ok }},
		{"none", func(n application.Notifier) bool { _, ok := n.(application.NoopNotifier); return ok }},
		{"bogus", func(n application.Notifier) bool { _, ok := n.(application.NoopNotifier); return ok }},
		{"pushover", func(n application.Notifier) bool { _, ok := n.(*pushover.Client); return ok }},
		{"desktop, pushover", func(n application.Notifier) bool {
			ns, ok := n.(application.Notifiers)
			return ok && len(ns) == 2
		}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			n := buildNotifier(config.NotifyConfig{Backend: tt.backend}, logger)
			if !tt.check(n) {
				t.Errorf("backend %q built %T", tt.backend, n)
			}
		})
	}
}
