package stt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Transcriber runs an adapter call under a bounded, fixed-delay retry loop.
type Transcriber struct {
	newAdapter AdapterFactory
	log        zerolog.Logger
}

// Option customizes a Transcriber.
type Option func(*Transcriber)

// WithAdapterFactory replaces the factory used to build adapters.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(t *Transcriber) { t.newAdapter = f }
}

// NewTranscriber creates a Transcriber.
func NewTranscriber(log zerolog.Logger, opts ...Option) *Transcriber {
	t := &Transcriber{
		newAdapter: NewAdapter,
		log:        log.With().Str("component", "stt").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe returns the transcript of the recording at path using the
// backend p. A missing credential fails immediately with *ConfigError;
// repeated backend failures end in *ProviderError. Use Describe to turn
// either into text fit for storage.
func (t *Transcriber) Transcribe(ctx context.Context, path string, cfg Config, p Provider) (string, error) {
	adapter, err := t.newAdapter(p, cfg)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return "", err
		}
		return "", fmt.Errorf("create %s adapter: %w", p, err)
	}

	attempts, delay := cfg.retryPolicy(p)
	log := t.log.With().Str("provider", string(p)).Str("audio", path).Logger()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := adapter.Transcribe(ctx, path)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("transcription attempt failed")

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", &ProviderError{Provider: p, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	return "", &ProviderError{Provider: p, Attempts: attempts, Err: lastErr}
}
