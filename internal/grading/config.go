package grading

import (
	"github.com/abhisek/quizzer/internal/llm"
)

// Config controls both grading stages. It is passed by value into every
// Grade call; the grader never reads process-wide settings.
type Config struct {
	// LLM selects the provider and credentials shared by both stages.
	LLM llm.Config

	// Reasoning configures the free-text justification stage.
	Reasoning StageConfig

	// Structured configures the constrained score-extraction stage.
	Structured StageConfig
}

// StageConfig configures one LLM call.
type StageConfig struct {
	// Model overrides the provider's default model for this stage.
	Model string

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// TopK limits sampling to the K most likely tokens. 0 = provider default.
	TopK int

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// SystemContext is prepended to the stage's instructions.
	SystemContext string

	// UserContext is appended after the answer details.
	UserContext string
}

// DefaultConfig returns the recommended two-stage setup on OpenRouter.
func DefaultConfig() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Reasoning: StageConfig{
			Model:       "google/gemini-2.5-pro",
			Temperature: 0.4,
			TopK:        10,
			MaxTokens:   2048,
		},
		Structured: StageConfig{
			Model:       "openai/gpt-4o",
			Temperature: 0,
			TopK:        1,
			MaxTokens:   64,
		},
	}
}
