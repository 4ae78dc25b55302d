package stt

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultDeepgramBaseURL = "https://api.deepgram.com"

// DeepgramAdapter calls Deepgram's prerecorded transcription endpoint.
type DeepgramAdapter struct {
	client   *http.Client
	apiKey   string
	model    string
	language string
	baseURL  string
}

// NewDeepgramAdapter creates a Deepgram adapter. timeout bounds one request.
func NewDeepgramAdapter(cfg DeepgramConfig, timeout time.Duration) (*DeepgramAdapter, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Setting: "DEEPGRAM_API_KEY"}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepgramBaseURL
	}
	return &DeepgramAdapter{
		client:   &http.Client{Timeout: timeout},
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		language: cfg.Language,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (a *DeepgramAdapter) Provider() Provider { return Deepgram }

func (a *DeepgramAdapter) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	q := url.Values{}
	q.Set("smart_format", "true")
	if a.model != "" {
		q.Set("model", a.model)
	}
	if a.language != "" {
		q.Set("language", a.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/listen?"+q.Encode(), f)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+a.apiKey)
	req.Header.Set("Content-Type", audioContentType(path))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "err_msg").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}

	transcript := gjson.GetBytes(body, "results.channels.0.alternatives.0.transcript")
	if !transcript.Exists() {
		return "", fmt.Errorf("no transcript in Deepgram response")
	}
	return transcript.String(), nil
}

// audioContentType guesses the MIME type from the file extension.
func audioContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".webm":
		return "audio/webm"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
