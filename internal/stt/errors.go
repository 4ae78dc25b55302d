package stt

import (
	"errors"
	"fmt"
)

// ConfigError reports a missing credential. It is never retried.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s not configured", e.Setting)
}

// ProviderError is the terminal failure of a backend after all attempts.
type ProviderError struct {
	Provider Provider
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s transcription failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Describe renders a transcription failure as the text stored in place of
// a transcript, so the user sees why an answer could not be processed.
func Describe(err error) string {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return fmt.Sprintf("Error: %s not configured.", cfgErr.Setting)
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return fmt.Sprintf("Error: Could not transcribe audio with %s after %d attempts. %v",
			provErr.Provider.Title(), provErr.Attempts, provErr.Err)
	}
	return fmt.Sprintf("Error: Could not transcribe audio. %v", err)
}
