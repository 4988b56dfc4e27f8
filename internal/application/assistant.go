package application

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/metrics"
	"devotional-voice/internal/note"
	"devotional-voice/internal/search"
)

type Config struct {
	// JournalNote receives devotionals from the intake loop and from
	// Reflect calls without a target. Empty means clipboard.
	JournalNote      string
	MaxResults       int
	StopwordLanguage string
}

// Dependencies groups the ports the assistant drives. Narrator, Player and
// Clipboard may be nil when the matching feature is disabled.
type Dependencies struct {
	Notes     NoteStore
	STT       SpeechToText
	Generator Generator
	Narrator  *Narrator
	Player    Player
	Clipboard Clipboard
	Notifier  Notifier
	Metrics   *metrics.Metrics
}

type Assistant struct {
	notes     NoteStore
	stt       SpeechToText
	generator Generator
	narrator  *Narrator
	player    Player
	clipboard Clipboard
	notifier  Notifier
	metrics   *metrics.Metrics
	scorer    search.Scorer
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func NewAssistant(deps Dependencies, cfg Config, logger *slog.Logger) *Assistant {
	if deps.STT == nil {
		deps.STT = &NoopSTT{}
	}
	if deps.Notifier == nil {
		deps.Notifier = &NoopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Assistant{
		notes:     deps.Notes,
		stt:       deps.STT,
		generator: deps.Generator,
		narrator:  deps.Narrator,
		player:    deps.Player,
		clipboard: deps.Clipboard,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		scorer:    search.Scorer{StopwordLanguage: cfg.StopwordLanguage},
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Search returns the vault notes related to query.
func (a *Assistant) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	return a.SearchTop(ctx, query, a.cfg.MaxResults)
}

// SearchTop is Search with an explicit result limit.
func (a *Assistant) SearchTop(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	start := time.Now()
	docs, err := a.notes.Load(ctx)
	a.metrics.Stage("search", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}

	results := a.scorer.Search(query, docs, topK)
	a.metrics.SearchResults.Observe(float64(len(results)))
	a.logger.Info("searched vault", "notes", len(docs), "results", len(results))
	return results, nil
}

// Reflect writes a devotional for input and appends it to target. Without a
// target the rendered section goes to the journal note, or the clipboard
// when no journal note is configured.
func (a *Assistant) Reflect(ctx context.Context, input, target string) (*domain.Reflection, error) {
	return a.reflect(ctx, "text", input, target)
}

// ReflectVoice transcribes audio and reflects on the transcript.
func (a *Assistant) ReflectVoice(ctx context.Context, audio []byte, target string) (*domain.Reflection, error) {
	if len(audio) == 0 {
		return nil, domain.ErrEmptyInput
	}

	a.logger.Info("received audio", "bytes", len(audio))

	start := time.Now()
	text, err := a.stt.Transcribe(ctx, audio)
	a.metrics.Stage("transcribe", time.Since(start).Seconds(), err)
	if err != nil {
		a.notifyf(ctx, "음성 변환 실패: %v", err)
		return nil, fmt.Errorf("transcribing: %w", err)
	}

	a.logger.Info("transcribed", "text", text)
	return a.reflect(ctx, "voice", text, target)
}

// ReflectNote reflects on the whole content of the note at notePath and
// appends the devotional to that same note.
func (a *Assistant) ReflectNote(ctx context.Context, notePath string) (*domain.Reflection, error) {
	content, err := a.notes.Read(ctx, notePath)
	if err != nil {
		return nil, fmt.Errorf("reading note: %w", err)
	}
	return a.reflect(ctx, "note", content, notePath)
}

func (a *Assistant) reflect(ctx context.Context, kind, input, target string) (*domain.Reflection, error) {
	if strings.TrimSpace(input) == "" {
		return nil, domain.ErrEmptyInput
	}

	r := &domain.Reflection{ID: uuid.NewString(), Input: input}
	logger := a.logger.With("reflection", r.ID, "input", kind)

	refs, err := a.Search(ctx, input)
	if err != nil {
		a.notifyf(ctx, "묵상글 생성 실패: %v", err)
		return nil, err
	}
	r.References = refs

	start := time.Now()
	devotional, err := a.generator.Generate(ctx, input, refs)
	a.metrics.Stage("generate", time.Since(start).Seconds(), err)
	if err != nil {
		a.notifyf(ctx, "묵상글 생성 실패: %v", err)
		return nil, fmt.Errorf("generating devotional: %w", err)
	}
	r.Devotional = *devotional

	logger.Info("generated devotional",
		"markdown_chars", len([]rune(devotional.Markdown)),
		"has_script", devotional.TTSScript != "",
	)

	r.Section = note.Render(*devotional, refs, a.now())

	if target == "" {
		target = a.cfg.JournalNote
	}
	if err := a.deliver(ctx, r.Section, target); err != nil {
		a.notifyf(ctx, "묵상글 생성 실패: %v", err)
		return nil, err
	}
	r.Target = target

	a.metrics.Reflections.WithLabelValues(kind).Inc()
	logger.Info("devotional delivered", "target", target, "references", len(refs))
	a.notifyf(ctx, "✅ 묵상글이 생성되었습니다!")

	return r, nil
}

func (a *Assistant) deliver(ctx context.Context, section, target string) error {
	if target != "" {
		if err := a.notes.Append(ctx, target, section); err != nil {
			return fmt.Errorf("appending to %s: %w", target, err)
		}
		return nil
	}
	if a.clipboard == nil {
		return nil
	}
	if err := a.clipboard.Copy(ctx, section); err != nil {
		return fmt.Errorf("copying devotional: %w", err)
	}
	return nil
}

// Narrate synthesizes text into a WAV file.
func (a *Assistant) Narrate(ctx context.Context, text string) ([]byte, error) {
	if a.narrator == nil {
		return nil, fmt.Errorf("text-to-speech is disabled: %w", domain.ErrUnsupportedProvider)
	}
	return a.narrator.Narrate(ctx, text)
}

// ReadAloud plays selection, or the narration script stored in the note at
// notePath when selection is blank.
func (a *Assistant) ReadAloud(ctx context.Context, selection, notePath string) error {
	text := strings.TrimSpace(selection)
	if text == "" && notePath != "" {
		content, err := a.notes.Read(ctx, notePath)
		if err != nil {
			return fmt.Errorf("reading note: %w", err)
		}
		text, _ = note.ExtractScript(content)
	}
	if text == "" {
		return domain.ErrNoScript
	}
	if a.player == nil {
		return fmt.Errorf("audio playback is not available: %w", domain.ErrUnsupportedProvider)
	}

	wav, err := a.Narrate(ctx, text)
	if err != nil {
		return fmt.Errorf("narrating: %w", err)
	}

	a.logger.Info("playing narration", "bytes", len(wav))
	if err := a.player.Play(ctx, wav); err != nil {
		return fmt.Errorf("playing narration: %w", err)
	}
	return nil
}

// SaveAudio narrates the script stored in the note at notePath, writes the
// WAV next to the note and embeds it at the end of the note. It returns the
// vault-relative path of the audio file.
func (a *Assistant) SaveAudio(ctx context.Context, notePath string) (string, error) {
	content, err := a.notes.Read(ctx, notePath)
	if err != nil {
		return "", fmt.Errorf("reading note: %w", err)
	}

	text, ok := note.ExtractScript(content)
	if !ok {
		return "", domain.ErrNoScript
	}

	wav, err := a.Narrate(ctx, text)
	if err != nil {
		a.notifyf(ctx, "오디오 생성 실패: %v", err)
		return "", fmt.Errorf("narrating: %w", err)
	}

	name := note.AudioFileName(a.now())
	audioPath := name
	if dir := path.Dir(strings.ReplaceAll(notePath, "\\", "/")); dir != "." && dir != "/" {
		audioPath = dir + "/" + name
	}

	if err := a.notes.WriteFile(ctx, audioPath, wav); err != nil {
		return "", fmt.Errorf("saving audio: %w", err)
	}
	if err := a.notes.Append(ctx, notePath, note.AudioEmbed(name)); err != nil {
		return "", fmt.Errorf("embedding audio: %w", err)
	}

	a.logger.Info("saved narration", "path", audioPath, "bytes", len(wav))
	a.notifyf(ctx, "💾 오디오 저장 완료: %s", name)
	return audioPath, nil
}

// Run reads commands from source until ctx is cancelled. Each command is
// reflected on and delivered to the journal note.
func (a *Assistant) Run(ctx context.Context, source AudioSource) error {
	a.logger.Info("starting audio source", "source", source.Name())
	if err := source.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer source.Stop()

	a.logger.Info("assistant ready, waiting for input")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx, source); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context, source AudioSource) error {
	data, err := source.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting input: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	if text, isText := isTextCommand(data); isText {
		a.logger.Info("received text command", "chars", len([]rune(text)))
		_, err = a.Reflect(ctx, text, "")
	} else {
		_, err = a.ReflectVoice(ctx, data, "")
	}
	return err
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}

func (a *Assistant) notifyf(ctx context.Context, format string, args ...any) {
	if err := a.notifier.Notify(ctx, fmt.Sprintf(format, args...)); err != nil {
		a.logger.Error("notifying", "error", err)
	}
}
