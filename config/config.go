package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"devotional-voice/internal/search"
)

type Config struct {
	Vault      VaultConfig      `yaml:"vault"`
	STT        STTConfig        `yaml:"stt"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	TTS        TTSConfig        `yaml:"tts"`
	Audio      AudioConfig      `yaml:"audio"`
	Notify     NotifyConfig     `yaml:"notify"`
	Cache      CacheConfig      `yaml:"cache"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

type VaultConfig struct {
	Dir string `yaml:"dir"`
	// WhitelistFolders limits search to these folders. Accepts a YAML list
	// or a comma-separated string.
	WhitelistFolders FolderList `yaml:"whitelist_folders"`
	// JournalNote receives devotionals created by serve and by reflect
	// without --note. Empty copies them to the clipboard instead.
	JournalNote string `yaml:"journal_note"`
	// RefreshInterval reloads the in-memory note index periodically.
	// "0" reloads only after the assistant writes a note.
	RefreshInterval string `yaml:"refresh_interval"`
}

type STTConfig struct {
	Provider     string `yaml:"provider"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	GroqAPIKey   string `yaml:"groq_api_key"`
	Language     string `yaml:"language"`
}

type GenerationConfig struct {
	Provider        string `yaml:"provider"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	Model           string `yaml:"model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	Template        string `yaml:"template"`
	TemplateFile    string `yaml:"template_file"`
}

type SearchConfig struct {
	MaxResults       int    `yaml:"max_results"`
	StopwordLanguage string `yaml:"stopword_language"`
}

type TTSConfig struct {
	Enabled       *bool  `yaml:"enabled"`
	Provider      string `yaml:"provider"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIVoice   string `yaml:"openai_voice"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiVoice   string `yaml:"gemini_voice"`
	Language      string `yaml:"language"`
	MaxChunkChars int    `yaml:"max_chunk_chars"`
}

type AudioConfig struct {
	Source     string `yaml:"source"`
	HTTPAddr   string `yaml:"http_addr"`
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
	MaxSeconds int    `yaml:"max_seconds"`
	AuthToken  string `yaml:"auth_token"`
	RateLimit  int    `yaml:"rate_limit"`
}

type NotifyConfig struct {
	Backend  string         `yaml:"backend"`
	Pushover PushoverConfig `yaml:"pushover"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Backend  string `yaml:"backend"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FolderList is a list of vault folders.
type FolderList []string

func (f *FolderList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var folders []string
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				folders = append(folders, part)
			}
		}
		*f = folders
		return nil
	case yaml.SequenceNode:
		var folders []string
		if err := node.Decode(&folders); err != nil {
			return err
		}
		*f = folders
		return nil
	default:
		return fmt.Errorf("whitelist_folders: expected a string or a list")
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.loadTemplate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Cache.TTLDuration(); err != nil {
		return nil, err
	}
	if _, err := cfg.Vault.RefreshDuration(); err != nil {
		return nil, err
	}
	if lang := cfg.Search.StopwordLanguage; lang != "" && !search.SupportsStopwordLanguage(lang) {
		return nil, fmt.Errorf("search.stopword_language %q: supported codes are %s",
			lang, strings.Join(search.StopwordLanguages, ", "))
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Vault.Dir == "" {
		c.Vault.Dir = "."
	}
	if c.Vault.RefreshInterval == "" {
		c.Vault.RefreshInterval = "10m"
	}
	if c.STT.Provider == "" {
		c.STT.Provider = "groq"
	}
	if c.STT.Language == "" {
		c.STT.Language = "ko"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Generation.Model == "" {
		c.Generation.Model = "gemini-2.0-flash"
	}
	if c.Generation.AnthropicModel == "" {
		c.Generation.AnthropicModel = "claude-sonnet-4-20250514"
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 5
	}
	if c.TTS.Enabled == nil {
		enabled := true
		c.TTS.Enabled = &enabled
	}
	if c.TTS.Provider == "" {
		c.TTS.Provider = "gemini"
	}
	if c.TTS.OpenAIAPIKey == "" {
		c.TTS.OpenAIAPIKey = c.STT.OpenAIAPIKey
	}
	if c.TTS.OpenAIVoice == "" {
		c.TTS.OpenAIVoice = "nova"
	}
	if c.TTS.GeminiAPIKey == "" {
		c.TTS.GeminiAPIKey = c.Generation.GeminiAPIKey
	}
	if c.TTS.GeminiModel == "" {
		c.TTS.GeminiModel = "gemini-2.5-flash-preview-tts"
	}
	if c.TTS.GeminiVoice == "" {
		c.TTS.GeminiVoice = "Kore"
	}
	if c.TTS.Language == "" {
		c.TTS.Language = "ko-KR"
	}
	if c.TTS.MaxChunkChars == 0 {
		c.TTS.MaxChunkChars = 1500
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "http"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./inbox"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.MaxSeconds == 0 {
		c.Audio.MaxSeconds = 120
	}
	if c.Audio.RateLimit == 0 {
		c.Audio.RateLimit = 30
	}
	if c.Notify.Backend == "" {
		c.Notify.Backend = "none"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "168h"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) loadTemplate() error {
	if c.Generation.Template != "" || c.Generation.TemplateFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.Generation.TemplateFile)
	if err != nil {
		return fmt.Errorf("reading template file: %w", err)
	}
	c.Generation.Template = string(data)
	return nil
}

// TTSEnabled reports whether narration is turned on.
func (c *Config) TTSEnabled() bool {
	return c.TTS.Enabled != nil && *c.TTS.Enabled
}

// STTAPIKey returns the key for the selected transcription provider.
func (c *Config) STTAPIKey() string {
	if c.STT.Provider == "openai" {
		return c.STT.OpenAIAPIKey
	}
	return c.STT.GroqAPIKey
}

func (c CacheConfig) TTLDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", c.TTL, err)
	}
	return d, nil
}

func (c VaultConfig) RefreshDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid vault refresh_interval %q: %w", c.RefreshInterval, err)
	}
	return d, nil
}
