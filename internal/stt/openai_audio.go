package stt

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultMistralBaseURL = "https://api.mistral.ai/v1"

// audioAdapter talks to any OpenAI-compatible /audio/transcriptions
// endpoint. Mistral's Voxtral and OpenAI's Whisper both speak it.
type audioAdapter struct {
	client   *openai.Client
	model    string
	provider Provider
}

func newAudioAdapter(p Provider, apiKey, model, baseURL string, timeout time.Duration) *audioAdapter {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &audioAdapter{
		client:   openai.NewClientWithConfig(config),
		model:    model,
		provider: p,
	}
}

// NewMistralAdapter creates an adapter for Mistral's Voxtral models.
func NewMistralAdapter(cfg MistralConfig, timeout time.Duration) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Setting: "MISTRAL_API_KEY"}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultMistralBaseURL
	}
	return newAudioAdapter(Mistral, cfg.APIKey, cfg.Model, baseURL, timeout), nil
}

// NewWhisperAdapter creates an adapter for OpenAI Whisper.
func NewWhisperAdapter(cfg WhisperConfig, timeout time.Duration) (Adapter, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Setting: "OPENAI_API_KEY"}
	}
	return newAudioAdapter(Whisper, cfg.APIKey, cfg.Model, cfg.BaseURL, timeout), nil
}

func (a *audioAdapter) Provider() Provider { return a.provider }

func (a *audioAdapter) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", a.provider, err)
	}
	return resp.Text, nil
}
