package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abiiranathan/goflag"

	"devotional-voice/config"
	"devotional-voice/internal/application"
	"devotional-voice/internal/domain"
	"devotional-voice/internal/metrics"
	"devotional-voice/internal/pcm"
)

type options struct {
	configPath string
	text       string
	audioFile  string
	note       string
	target     string
	query      string
	top        int
	source     string
	in         string
	out        string
	mimeType   string
}

func main() {
	opts := &options{
		configPath: "config.yaml",
		mimeType:   pcm.DefaultFormat().MimeType(),
	}

	ctx := defineCommands(opts)
	subcmd, err := ctx.Parse(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if subcmd == nil {
		ctx.PrintUsage(os.Stdout)
		os.Exit(1)
	}

	subcmd.Handler()
}

func defineCommands(opts *options) *goflag.Context {
	noteFlag := goflag.Flag{
		FlagType:  goflag.FlagString,
		Name:      "note",
		ShortName: "n",
		Value:     &opts.note,
		Usage:     "Note path relative to the vault",
		Required:  false,
	}

	ctx := goflag.NewContext()

	ctx.AddFlag(goflag.FlagString, "config", "c", &opts.configPath, "Path to the config file", false)

	ctx.AddSubCommand("serve", "Listen for voice and text input and write devotionals to the journal note", func() {
		run(opts, serve)
	}).AddFlag(goflag.FlagString, "source", "s", &opts.source, "Input source: http, file or microphone", false)

	ctx.AddSubCommand("reflect", "Write a devotional from text, a recording or a whole note", func() {
		run(opts, reflect)
	}).AddFlag(goflag.FlagString, "text", "t", &opts.text, "Text to reflect on", false).
		AddFlag(goflag.FlagString, "audio", "a", &opts.audioFile, "Recording to transcribe and reflect on", false).
		AddFlag(goflag.FlagString, "target", "o", &opts.target, "Note to append the devotional to", false).
		AddFlagPtr(&noteFlag)

	ctx.AddSubCommand("search", "List the vault notes related to a query", func() {
		run(opts, searchNotes)
	}).AddFlag(goflag.FlagString, "query", "q", &opts.query, "Search text", true).
		AddFlag(goflag.FlagInt, "top", "k", &opts.top, "Maximum results, defaults to search.max_results", false)

	ctx.AddSubCommand("speak", "Read text or a note's narration script aloud", func() {
		run(opts, speak)
	}).AddFlag(goflag.FlagString, "text", "t", &opts.text, "Text to read", false).
		AddFlag(goflag.FlagString, "out", "o", &opts.out, "Write the WAV file here instead of playing it", false).
		AddFlagPtr(&noteFlag)

	ctx.AddSubCommand("save-audio", "Narrate a note's script and embed the WAV in the note", func() {
		run(opts, saveAudio)
	}).AddFlagPtr(&noteFlag)

	ctx.AddSubCommand("transcribe", "Transcribe a recording", func() {
		run(opts, transcribe)
	}).AddFlag(goflag.FlagFilePath, "audio", "a", &opts.audioFile, "Recording to transcribe", true)

	ctx.AddSubCommand("wav", "Wrap raw PCM in a WAV header", func() {
		logger := setupLogger(config.LogConfig{Level: "info"}, os.Stderr)
		if err := wrapPCM(opts, logger); err != nil {
			logger.Error("command failed", "error", err)
			os.Exit(1)
		}
	}).AddFlag(goflag.FlagFilePath, "in", "i", &opts.in, "Raw PCM file", true).
		AddFlag(goflag.FlagString, "out", "o", &opts.out, "WAV file to write", true).
		AddFlag(goflag.FlagString, "mime", "m", &opts.mimeType, "Sample format, e.g. audio/L16;rate=24000", false)

	return ctx
}

type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
	assistant *application.Assistant
	opts      *options
}

// run loads the config, builds the assistant and runs fn until it returns or
// the process is interrupted.
func run(opts *options, fn func(ctx context.Context, e *env) error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	m := metrics.New()

	assistant, err := buildAssistant(ctx, cfg, m, logger)
	if err != nil {
		logger.Error("building assistant", "error", err)
		os.Exit(1)
	}

	e := &env{cfg: cfg, logger: logger, metrics: m, assistant: assistant, opts: opts}
	if err := fn(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, e *env) error {
	audioCfg := e.cfg.Audio
	if e.opts.source != "" {
		audioCfg.Source = e.opts.source
	}

	metricsPath := ""
	if e.cfg.Metrics.Enabled {
		metricsPath = e.cfg.Metrics.Path
	}

	source := createAudioSource(audioCfg, e.metrics, metricsPath, e.logger)

	e.logger.Info("starting devotional assistant",
		"source", source.Name(),
		"vault", e.cfg.Vault.Dir,
		"journal", e.cfg.Vault.JournalNote,
	)

	return e.assistant.Run(ctx, source)
}

func reflect(ctx context.Context, e *env) error {
	target := e.opts.target
	if target == "" {
		target = e.opts.note
	}

	var (
		r   *domain.Reflection
		err error
	)

	switch {
	case e.opts.audioFile != "":
		data, readErr := os.ReadFile(e.opts.audioFile)
		if readErr != nil {
			return fmt.Errorf("reading recording: %w", readErr)
		}
		r, err = e.assistant.ReflectVoice(ctx, data, target)
	case e.opts.text != "":
		r, err = e.assistant.Reflect(ctx, e.opts.text, target)
	case e.opts.note != "":
		r, err = e.assistant.ReflectNote(ctx, e.opts.note)
	default:
		return errors.New("one of --text, --audio or --note is required")
	}
	if err != nil {
		return err
	}

	if r.Target == "" {
		fmt.Print(strings.TrimLeft(r.Section, "\n"))
		return nil
	}
	fmt.Printf("appended devotional to %s\n", r.Target)
	return nil
}

func searchNotes(ctx context.Context, e *env) error {
	top := e.opts.top
	if top <= 0 {
		top = e.cfg.Search.MaxResults
	}
	results, err := e.assistant.SearchTop(ctx, e.opts.query, top)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no related notes")
		return nil
	}
	for i, r := range results {
		fmt.Printf("%d. %s (score %d)\n   %s\n", i+1, r.Document.ID, r.Score, r.Excerpt)
	}
	return nil
}

func speak(ctx context.Context, e *env) error {
	if e.opts.out == "" {
		return e.assistant.ReadAloud(ctx, e.opts.text, e.opts.note)
	}

	text := e.opts.text
	if text == "" {
		return errors.New("--out requires --text")
	}
	wav, err := e.assistant.Narrate(ctx, text)
	if err != nil {
		return err
	}
	return writeWAV(e.logger, e.opts.out, wav)
}

func saveAudio(ctx context.Context, e *env) error {
	if e.opts.note == "" {
		return errors.New("--note is required")
	}
	audioPath, err := e.assistant.SaveAudio(ctx, e.opts.note)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s\n", audioPath)
	return nil
}

func transcribe(ctx context.Context, e *env) error {
	stt, err := buildSTT(e.cfg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(e.opts.audioFile)
	if err != nil {
		return fmt.Errorf("reading recording: %w", err)
	}
	text, err := stt.Transcribe(ctx, data)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// wrapPCM needs no config file.
func wrapPCM(opts *options, logger *slog.Logger) error {
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("reading pcm: %w", err)
	}
	format := pcm.ParseFormat(opts.mimeType)
	return writeWAV(logger, opts.out, pcm.EncodeWAV(data, format))
}

func writeWAV(logger *slog.Logger, path string, wav []byte) error {
	if err := os.WriteFile(path, wav, 0644); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	d, err := pcm.Duration(wav)
	if err != nil {
		logger.Warn("reading back wav", "error", err)
	}
	logger.Info("wrote wav", "path", path, "bytes", len(wav), "duration", d)
	return nil
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
