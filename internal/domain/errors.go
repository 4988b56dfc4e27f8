package domain

import "errors"

var (
	ErrAPIKeyMissing       = errors.New("api key is missing")
	ErrUnauthorized        = errors.New("incorrect api key (401)")
	ErrQuotaExceeded       = errors.New("api quota exceeded (429)")
	ErrEmptyInput          = errors.New("input is empty")
	ErrNoScript            = errors.New("no tts script found")
	ErrNoAudio             = errors.New("no audio data in response")
	ErrUnsupportedProvider = errors.New("unsupported provider")
)
