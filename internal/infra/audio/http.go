package audio

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"devotional-voice/internal/domain"
	"devotional-voice/internal/metrics"
)

const (
	maxAudioBytes = 10 * 1024 * 1024
	maxTextBytes  = 64 * 1024
	queueSize     = 10
)

// HTTPSource is the intake server for phones and shortcuts. Accepted
// payloads wait in a bounded queue until the assistant asks for the next one.
type HTTPSource struct {
	addr      string
	authToken string
	limiter   *RateLimiter
	metrics   *metrics.Metrics
	logger    *slog.Logger

	mux   *http.ServeMux
	queue chan []byte

	mu        sync.Mutex
	server    *http.Server
	listener  net.Listener
	closeOnce sync.Once
}

// NewHTTPSource accepts voice recordings on POST /audio and text on
// POST /text. When authToken is set both endpoints require it in the
// X-Auth-Token header or the token query parameter. ratePerMinute limits
// requests per client IP.
func NewHTTPSource(addr, authToken string, ratePerMinute int, m *metrics.Metrics, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:      addr,
		authToken: authToken,
		limiter:   NewRateLimiter(ratePerMinute, time.Minute),
		metrics:   m,
		logger:    logger,
		mux:       http.NewServeMux(),
		queue:     make(chan []byte, queueSize),
	}

	h.mux.HandleFunc("POST /audio", h.guard("audio", h.handleAudio))
	h.mux.HandleFunc("POST /text", h.guard("text", h.handleText))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

// Handle mounts an extra handler, such as /metrics, on the intake server.
func (h *HTTPSource) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// Addr is the bound address once Start has returned, else the configured one.
func (h *HTTPSource) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.addr
}

// Start binds the listening socket before returning so that a busy port is
// reported to the caller.
func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	srv := &http.Server{
		Handler:      h.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	h.server, h.listener = srv, ln

	go func() {
		h.logger.Info("http intake listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("http intake stopped", "error", err)
		}
	}()
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	srv := h.server
	h.server, h.listener = nil, nil
	h.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() { close(h.queue) })
	return nil
}

func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case data, ok := <-h.queue:
		if !ok {
			return nil, errors.New("http intake closed")
		}
		return data, nil
	}
}

// InjectAudio queues data as if it had been posted. It is dropped when the
// queue is full.
func (h *HTTPSource) InjectAudio(data []byte) {
	h.offer(data)
}

func (h *HTTPSource) offer(data []byte) bool {
	select {
	case h.queue <- data:
		return true
	default:
		return false
	}
}

func (h *HTTPSource) running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.server != nil
}

// guard applies metrics, rate limiting and the token check, outermost first.
func (h *HTTPSource) guard(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return h.instrument(endpoint, h.limiter.Middleware(h.authorize(next)))
}

func (h *HTTPSource) authorize(next http.HandlerFunc) http.HandlerFunc {
	if h.authToken == "" {
		return next
	}
	want := []byte(h.authToken)
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			h.logger.Warn("unauthorized intake request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *HTTPSource) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	if h.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		h.metrics.IntakeRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

// readBody reads at most limit bytes. Larger bodies are answered with 413
// and ok is false.
func (h *HTTPSource) readBody(w http.ResponseWriter, r *http.Request, limit int64) (data []byte, ok bool) {
	defer r.Body.Close()
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("intake body too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			http.Error(w, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		h.logger.Error("reading intake body", "path", r.URL.Path, "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r, maxAudioBytes)
	if !ok {
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	if !h.offer(data) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info("recording received", "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r, maxTextBytes)
	if !ok {
		return
	}
	if !utf8.Valid(data) {
		http.Error(w, "text must be utf-8", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	if !h.offer([]byte(domain.TextCommandPrefix + text)) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info("text received", "chars", len([]rune(text)))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "text": text})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	up := h.running()

	status, code := "ok", http.StatusOK
	if !up {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"running":    up,
		"queue_size": len(h.queue),
		"queue_cap":  cap(h.queue),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
