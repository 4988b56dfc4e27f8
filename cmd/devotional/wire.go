package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"devotional-voice/config"
	"devotional-voice/internal/application"
	"devotional-voice/internal/domain"
	"devotional-voice/internal/infra/anthropic"
	"devotional-voice/internal/infra/audio"
	"devotional-voice/internal/infra/cache"
	"devotional-voice/internal/infra/desktop"
	"devotional-voice/internal/infra/gemini"
	"devotional-voice/internal/infra/openai"
	"devotional-voice/internal/infra/pushover"
	"devotional-voice/internal/infra/vault"
	"devotional-voice/internal/metrics"
)

func buildAssistant(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*application.Assistant, error) {
	stt, err := buildSTT(cfg)
	if err != nil {
		return nil, err
	}

	generator, err := buildGenerator(cfg.Generation)
	if err != nil {
		return nil, err
	}

	var narrator *application.Narrator
	if cfg.TTSEnabled() {
		narrator, err = buildNarrator(ctx, cfg, m, logger)
		if err != nil {
			logger.Warn("narration disabled", "provider", cfg.TTS.Provider, "error", err)
		}
	}

	index := vault.NewIndex(vault.NewStore(cfg.Vault.Dir, cfg.Vault.WhitelistFolders, logger), logger)
	if refresh, _ := cfg.Vault.RefreshDuration(); refresh > 0 {
		index.StartPeriodicSync(ctx, refresh)
	}

	deps := application.Dependencies{
		Notes:     index,
		STT:       stt,
		Generator: generator,
		Narrator:  narrator,
		Player:    audio.NewPlayer(logger),
		Clipboard: desktop.NewClipboard(),
		Notifier:  buildNotifier(cfg.Notify, logger),
		Metrics:   m,
	}

	return application.NewAssistant(deps, application.Config{
		JournalNote:      cfg.Vault.JournalNote,
		MaxResults:       cfg.Search.MaxResults,
		StopwordLanguage: cfg.Search.StopwordLanguage,
	}, logger), nil
}

func buildSTT(cfg *config.Config) (application.SpeechToText, error) {
	provider := domain.STTProvider(cfg.STT.Provider)
	var keyName string
	switch provider {
	case domain.STTProviderOpenAI:
		keyName = "stt.openai_api_key"
	case domain.STTProviderGroq:
		keyName = "stt.groq_api_key"
	default:
		return nil, fmt.Errorf("%w: stt provider %q", domain.ErrUnsupportedProvider, cfg.STT.Provider)
	}

	key := cfg.STTAPIKey()
	if key == "" {
		return &application.NoopSTT{KeyName: keyName}, nil
	}
	client, err := openai.NewWhisperClient(provider, key, cfg.STT.Language)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildGenerator(cfg config.GenerationConfig) (application.Generator, error) {
	switch domain.GenerationProvider(cfg.Provider) {
	case domain.GenerationProviderGemini:
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.Model, cfg.Template), nil
	case domain.GenerationProviderAnthropic:
		return anthropic.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Template), nil
	default:
		return nil, fmt.Errorf("%w: generation provider %q", domain.ErrUnsupportedProvider, cfg.Provider)
	}
}

func buildSynthesizer(cfg config.TTSConfig) (application.Synthesizer, error) {
	switch domain.TTSProvider(cfg.Provider) {
	case domain.TTSProviderGemini:
		return gemini.NewSpeechClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVoice).WithLanguage(cfg.Language), nil
	case domain.TTSProviderOpenAI:
		return openai.NewSpeechClient(cfg.OpenAIAPIKey, cfg.OpenAIVoice), nil
	case domain.TTSProviderGoogle:
		return nil, fmt.Errorf("%w: browser speech has no server api, use gemini or openai", domain.ErrUnsupportedProvider)
	default:
		return nil, fmt.Errorf("%w: tts provider %q", domain.ErrUnsupportedProvider, cfg.Provider)
	}
}

func buildNarrator(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*application.Narrator, error) {
	synth, err := buildSynthesizer(cfg.TTS)
	if err != nil {
		return nil, err
	}

	var audioCache application.AudioCache
	if cfg.Cache.Enabled {
		c, err := buildCache(ctx, cfg.Cache, logger)
		if err != nil {
			logger.Warn("audio cache unavailable, narrating without it", "error", err)
		} else {
			audioCache = c
		}
	}

	return application.NewNarrator(synth, audioCache, cfg.TTS.MaxChunkChars, m, logger), nil
}

func buildCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (*cache.AudioCache, error) {
	switch cfg.Backend {
	case "redis":
		ttl, err := cfg.TTLDuration()
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			TTL:      ttl,
		}, logger)
	case "memory":
		return cache.NewMemory(logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// buildNotifier accepts one backend or a comma-separated list, e.g. "desktop,pushover".
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) application.Notifier {
	var notifiers application.Notifiers
	for _, backend := range strings.Split(cfg.Backend, ",") {
		switch backend = strings.TrimSpace(backend); backend {
		case "pushover":
			notifiers = append(notifiers, pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey))
		case "desktop":
			notifiers = append(notifiers, desktop.NewNotifier())
		case "none", "":
		default:
			logger.Warn("unknown notify backend ignored", "backend", backend)
		}
	}

	switch len(notifiers) {
	case 0:
		return application.NoopNotifier{}
	case 1:
		return notifiers[0]
	default:
		return notifiers
	}
}

func createAudioSource(cfg config.AudioConfig, m *metrics.Metrics, metricsPath string, logger *slog.Logger) application.AudioSource {
	newHTTP := func() application.AudioSource {
		h := audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, cfg.RateLimit, m, logger)
		if metricsPath != "" {
			h.Handle("GET "+metricsPath, m.Handler())
		}
		return h
	}

	switch cfg.Source {
	case "http":
		return newHTTP()
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.MaxSeconds, logger)
	default:
		logger.Warn("unknown audio source, using http", "source", cfg.Source)
		return newHTTP()
	}
}
