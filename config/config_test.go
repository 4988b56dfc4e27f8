package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "vault:\n  dir: /notes\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"vault dir", cfg.Vault.Dir, "/notes"},
		{"stt provider", cfg.STT.Provider, "groq"},
		{"stt language", cfg.STT.Language, "ko"},
		{"generation provider", cfg.Generation.Provider, "gemini"},
		{"generation model", cfg.Generation.Model, "gemini-2.0-flash"},
		{"max results", cfg.Search.MaxResults, 5},
		{"tts enabled", cfg.TTSEnabled(), true},
		{"tts provider", cfg.TTS.Provider, "gemini"},
		{"tts gemini model", cfg.TTS.GeminiModel, "gemini-2.5-flash-preview-tts"},
		{"tts gemini voice", cfg.TTS.GeminiVoice, "Kore"},
		{"tts openai voice", cfg.TTS.OpenAIVoice, "nova"},
		{"tts language", cfg.TTS.Language, "ko-KR"},
		{"audio source", cfg.Audio.Source, "http"},
		{"notify backend", cfg.Notify.Backend, "none"},
		{"metrics path", cfg.Metrics.Path, "/metrics"},
		{"log level", cfg.Log.Level, "info"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	refresh, err := cfg.Vault.RefreshDuration()
	if err != nil || refresh != 10*time.Minute {
		t.Errorf("vault refresh: got %v, %v", refresh, err)
	}

	ttl, err := cfg.Cache.TTLDuration()
	if err != nil || ttl != 168*time.Hour {
		t.Errorf("cache ttl: got %v, %v", ttl, err)
	}
}

func TestLoad_ExpandsEnvAndSharesKeys(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "gem-123")
	t.Setenv("TEST_OPENAI_KEY", "sk-456")

	cfg, err := Load(writeConfig(t, `
stt:
  provider: openai
  openai_api_key: ${TEST_OPENAI_KEY}
generation:
  gemini_api_key: ${TEST_GEMINI_KEY}
tts:
  enabled: false
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.STTAPIKey() != "sk-456" {
		t.Errorf("stt key: got %q", cfg.STTAPIKey())
	}
	if cfg.TTS.GeminiAPIKey != "gem-123" {
		t.Errorf("tts gemini key should default to generation key, got %q", cfg.TTS.GeminiAPIKey)
	}
	if cfg.TTS.OpenAIAPIKey != "sk-456" {
		t.Errorf("tts openai key should default to stt key, got %q", cfg.TTS.OpenAIAPIKey)
	}
	if cfg.TTSEnabled() {
		t.Error("tts should be disabled")
	}
}

func TestLoad_WhitelistFolders(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"comma separated", "vault:\n  whitelist_folders: \"묵상일지, 설교 ,\"\n", []string{"묵상일지", "설교"}},
		{"list", "vault:\n  whitelist_folders:\n    - 묵상일지\n    - 설교\n", []string{"묵상일지", "설교"}},
		{"empty", "vault:\n  whitelist_folders: \"\"\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if !slices.Equal(cfg.Vault.WhitelistFolders, tt.want) {
				t.Errorf("got %v, want %v", cfg.Vault.WhitelistFolders, tt.want)
			}
		})
	}
}

func TestLoad_TemplateFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.md")
	if err := os.WriteFile(tmpl, []byte("나만의 템플릿"), 0644); err != nil {
		t.Fatalf("writing template: %v", err)
	}

	cfg, err := Load(writeConfig(t, "generation:\n  template_file: "+tmpl+"\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Generation.Template != "나만의 템플릿" {
		t.Errorf("template: got %q", cfg.Generation.Template)
	}

	if _, err := Load(writeConfig(t, "generation:\n  template_file: /does/not/exist\n")); err == nil {
		t.Error("expected error for missing template file")
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "vault: [unclosed")); err == nil {
		t.Error("expected error for invalid yaml")
	}
	if _, err := Load(writeConfig(t, "cache:\n  ttl: forever\n")); err == nil {
		t.Error("expected error for invalid ttl")
	}
}

func TestLoad_StopwordLanguage(t *testing.T) {
	cfg, err := Load(writeConfig(t, "search:\n  stopword_language: en\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Search.StopwordLanguage != "en" {
		t.Errorf("stopword language: got %q", cfg.Search.StopwordLanguage)
	}

	if _, err := Load(writeConfig(t, "search:\n  stopword_language: xx\n")); err == nil {
		t.Error("expected error for unsupported stopword language")
	}
}
