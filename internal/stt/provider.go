// Package stt turns recorded answers into text through interchangeable
// speech-to-text backends.
package stt

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider selects a speech-to-text backend.
type Provider string

const (
	Deepgram Provider = "deepgram"
	Mistral  Provider = "mistral"
	Whisper  Provider = "whisper"
)

// Providers lists every supported backend in display order.
var Providers = []Provider{Deepgram, Mistral, Whisper}

// ParseProvider maps a user-supplied name onto a Provider.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown STT provider %q (want deepgram, mistral or whisper)", name)
}

// Title is the human-readable vendor name used in error text.
func (p Provider) Title() string {
	switch p {
	case Deepgram:
		return "Deepgram"
	case Mistral:
		return "Mistral"
	case Whisper:
		return "Whisper"
	}
	return string(p)
}

// Adapter wraps one external transcription service.
type Adapter interface {
	// Transcribe returns the transcript of the audio file at path.
	Transcribe(ctx context.Context, path string) (string, error)

	// Provider reports which backend this adapter talks to.
	Provider() Provider
}

// AdapterFactory builds the adapter for p from cfg. It returns a
// *ConfigError when the backend's credential is missing.
type AdapterFactory func(p Provider, cfg Config) (Adapter, error)

// NewAdapter is the default AdapterFactory.
func NewAdapter(p Provider, cfg Config) (Adapter, error) {
	switch p {
	case Deepgram:
		return NewDeepgramAdapter(cfg.Deepgram, cfg.Timeout)
	case Mistral:
		return NewMistralAdapter(cfg.Mistral, cfg.Timeout)
	case Whisper:
		return NewWhisperAdapter(cfg.Whisper, cfg.Timeout)
	}
	return nil, fmt.Errorf("unknown STT provider %q", p)
}

// Config holds every backend's settings. It is passed by value so a batch
// can snapshot it once before dispatch.
type Config struct {
	Deepgram DeepgramConfig
	Mistral  MistralConfig
	Whisper  WhisperConfig

	// MaxRetries is the number of attempts per recording. Default: 3.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts. Default: 1s.
	RetryDelay time.Duration

	// Timeout bounds a single adapter call. Default: 60s.
	Timeout time.Duration
}

// DeepgramConfig holds Deepgram settings.
type DeepgramConfig struct {
	APIKey   string
	Model    string // Default: "nova-3"
	Language string // Default: "multi"
	BaseURL  string // Default: "https://api.deepgram.com"
}

// MistralConfig holds Mistral (Voxtral) settings.
type MistralConfig struct {
	APIKey  string
	Model   string // Default: "voxtral-mini-latest"
	BaseURL string // Default: "https://api.mistral.ai/v1"

	// MaxRetries and RetryDelay override the shared retry policy when set.
	MaxRetries int
	RetryDelay time.Duration
}

// WhisperConfig holds OpenAI Whisper settings.
type WhisperConfig struct {
	APIKey  string
	Model   string // Default: "whisper-1"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// DefaultConfig returns a Config with sensible defaults and no credentials.
func DefaultConfig() Config {
	return Config{
		Deepgram: DeepgramConfig{
			Model:    "nova-3",
			Language: "multi",
		},
		Mistral: MistralConfig{
			Model: "voxtral-mini-latest",
		},
		Whisper: WhisperConfig{
			Model: "whisper-1",
		},
		MaxRetries: 3,
		RetryDelay: time.Second,
		Timeout:    60 * time.Second,
	}
}

// retryPolicy returns the attempt bound and delay for p.
func (c Config) retryPolicy(p Provider) (int, time.Duration) {
	attempts, delay := c.MaxRetries, c.RetryDelay
	if p == Mistral {
		if c.Mistral.MaxRetries > 0 {
			attempts = c.Mistral.MaxRetries
		}
		if c.Mistral.RetryDelay > 0 {
			delay = c.Mistral.RetryDelay
		}
	}
	return max(attempts, 1), max(delay, 0)
}
