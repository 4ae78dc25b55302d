package stt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"deepgram", Deepgram, false},
		{" Mistral ", Mistral, false},
		{"WHISPER", Whisper, false},
		{"google", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTranscriber_SucceedsAfterTransientFailures(t *testing.T) {
	mock := NewMockAdapter(Deepgram, func(_ string, attempt int) (string, error) {
		if attempt < 3 {
			return "", errors.New("connection reset")
		}
		return "the treaty of westphalia", nil
	})
	tr := NewTranscriber(zerolog.Nop(), WithAdapterFactory(mock.Factory()))

	text, err := tr.Transcribe(context.Background(), "a.wav", fastConfig(), Deepgram)
	require.NoError(t, err)
	assert.Equal(t, "the treaty of westphalia", text)
	assert.Equal(t, 3, mock.Calls("a.wav"))
}

func TestTranscriber_ExhaustsRetries(t *testing.T) {
	mock := NewMockAdapter(Deepgram, func(string, int) (string, error) {
		return "", errors.New("HTTP 503: busy")
	})
	tr := NewTranscriber(zerolog.Nop(), WithAdapterFactory(mock.Factory()))

	_, err := tr.Transcribe(context.Background(), "b.wav", fastConfig(), Deepgram)
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 3, provErr.Attempts)
	assert.Equal(t, 3, mock.Calls("b.wav"))
	assert.Equal(t, "Error: Could not transcribe audio with Deepgram after 3 attempts. HTTP 503: busy", Describe(err))
}

func TestTranscriber_MistralRetryOverride(t *testing.T) {
	mock := NewMockAdapter(Mistral, func(string, int) (string, error) {
		return "", errors.New("upload failed")
	})
	tr := NewTranscriber(zerolog.Nop(), WithAdapterFactory(mock.Factory()))

	cfg := fastConfig()
	cfg.Mistral.MaxRetries = 5
	cfg.Mistral.RetryDelay = time.Millisecond

	_, err := tr.Transcribe(context.Background(), "c.webm", cfg, Mistral)
	require.Error(t, err)
	assert.Equal(t, 5, mock.Calls("c.webm"))

	// The override applies to Mistral only.
	_, err = tr.Transcribe(context.Background(), "d.webm", cfg, Deepgram)
	require.Error(t, err)
	assert.Equal(t, 3, mock.Calls("d.webm"))
}

func TestTranscriber_MissingKeyShortCircuits(t *testing.T) {
	tr := NewTranscriber(zerolog.Nop())

	tests := []struct {
		provider Provider
		want     string
	}{
		{Deepgram, "Error: DEEPGRAM_API_KEY not configured."},
		{Mistral, "Error: MISTRAL_API_KEY not configured."},
		{Whisper, "Error: OPENAI_API_KEY not configured."},
	}
	for _, tt := range tests {
		start := time.Now()
		_, err := tr.Transcribe(context.Background(), "missing.wav", DefaultConfig(), tt.provider)
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr, tt.provider)
		assert.Equal(t, tt.want, Describe(err))
		assert.Less(t, time.Since(start), 500*time.Millisecond, "no retry delay expected")
	}
}

func TestTranscriber_ZeroRetriesStillAttemptsOnce(t *testing.T) {
	mock := NewMockAdapter(Whisper, func(string, int) (string, error) { return "ok", nil })
	tr := NewTranscriber(zerolog.Nop(), WithAdapterFactory(mock.Factory()))

	cfg := fastConfig()
	cfg.MaxRetries = 0
	text, err := tr.Transcribe(context.Background(), "e.wav", cfg, Whisper)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 1, mock.TotalCalls())
}

func TestDescribe_PlainError(t *testing.T) {
	assert.Equal(t, "Error: Could not transcribe audio. boom", Describe(errors.New("boom")))
}
