package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"devotional-voice/internal/domain"
)

// RetryConfig controls WithRetry. Delays grow by Multiplier after each
// failed attempt and are capped at MaxDelay.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
		if d >= float64(c.MaxDelay) {
			return c.MaxDelay
		}
	}
	return time.Duration(d)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so that WithRetry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry calls fn until it succeeds, returns a permanent error, the
// context ends, or MaxAttempts is reached. The last error is returned.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt >= cfg.MaxAttempts {
			return err
		}

		timer := time.NewTimer(cfg.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryableHTTPStatus reports whether a request may succeed when repeated.
func IsRetryableHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout ||
		statusCode >= 500
}

// StatusError converts a non-200 API response into an error. Unauthorized
// and client errors are permanent; 429 and 5xx stay retryable.
func StatusError(api string, statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return Permanent(fmt.Errorf("%s API error %d: %w", api, statusCode, domain.ErrUnauthorized))
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s API error %d: %w", api, statusCode, domain.ErrQuotaExceeded)
	case IsRetryableHTTPStatus(statusCode):
		return fmt.Errorf("%s API error %d: %s (retryable)", api, statusCode, string(body))
	default:
		return Permanent(fmt.Errorf("%s API error %d: %s", api, statusCode, string(body)))
	}
}
