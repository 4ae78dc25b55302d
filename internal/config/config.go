// Package config assembles the process configuration from the
// environment. Core packages never read the environment themselves;
// they receive the value-typed configs built here.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/stt"
)

// Config holds all application configuration. The database location is
// resolved by store.DefaultDBPath.
type Config struct {
	UploadDir string // empty means "uploads" next to the database
	DataDir   string
	LogLevel  string
	LogFormat string
	Workers   int

	STTProvider stt.Provider
	STT         stt.Config
	Grading     grading.Config
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is loaded if present.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	provider, err := stt.ParseProvider(getEnv("QUIZZER_STT_PROVIDER", string(stt.Deepgram)))
	if err != nil {
		return nil, err
	}

	return &Config{
		UploadDir:   os.Getenv("QUIZZER_UPLOAD_DIR"),
		DataDir:     getEnv("QUIZZER_DATA_DIR", "data"),
		LogLevel:    getEnv("QUIZZER_LOG_LEVEL", "info"),
		LogFormat:   getEnv("QUIZZER_LOG_FORMAT", "pretty"),
		Workers:     getEnvInt("QUIZZER_WORKERS", 0),
		STTProvider: provider,
		STT:         loadSTT(),
		Grading:     loadGrading(),
	}, nil
}

// UploadDirFor resolves where recordings are stored for a database at dbPath.
func (c *Config) UploadDirFor(dbPath string) string {
	if c.UploadDir != "" {
		return c.UploadDir
	}
	return filepath.Join(filepath.Dir(dbPath), "uploads")
}

func loadSTT() stt.Config {
	cfg := stt.DefaultConfig()

	cfg.Deepgram.APIKey = os.Getenv("DEEPGRAM_API_KEY")
	cfg.Deepgram.Model = getEnv("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = getEnv("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)

	cfg.Mistral.APIKey = os.Getenv("MISTRAL_API_KEY")
	cfg.Mistral.Model = getEnv("MISTRAL_MODEL", cfg.Mistral.Model)
	cfg.Mistral.MaxRetries = getEnvInt("MISTRAL_MAX_RETRIES", 0)
	cfg.Mistral.RetryDelay = getEnvDuration("MISTRAL_RETRY_DELAY", 0)

	cfg.Whisper.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Whisper.Model = getEnv("WHISPER_MODEL", cfg.Whisper.Model)

	cfg.MaxRetries = getEnvInt("STT_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryDelay = getEnvDuration("STT_RETRY_DELAY", cfg.RetryDelay)
	cfg.Timeout = getEnvDuration("STT_TIMEOUT", cfg.Timeout)
	return cfg
}

func loadGrading() grading.Config {
	cfg := grading.DefaultConfig()

	l := &cfg.LLM
	l.Provider = getEnv("LLM_PROVIDER", l.Provider)
	l.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	l.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	l.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	l.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	l.Retry.MaxAttempts = getEnvInt("OPENROUTER_MAX_RETRIES", l.Retry.MaxAttempts)
	l.Timeout = getEnvDuration("LLM_TIMEOUT", l.Timeout)

	r := &cfg.Reasoning
	r.Model = getEnv("REASONING_MODEL", r.Model)
	r.Temperature = getEnvFloat("REASONING_TEMPERATURE", r.Temperature)
	r.TopK = getEnvInt("REASONING_TOP_K", r.TopK)
	r.SystemContext = os.Getenv("REASONING_CONTEXT_SYSTEM")
	r.UserContext = os.Getenv("REASONING_CONTEXT_USER")

	s := &cfg.Structured
	s.Model = getEnv("STRUCTURED_OUTPUT_MODEL", s.Model)
	s.Temperature = getEnvFloat("STRUCTURED_OUTPUT_TEMPERATURE", s.Temperature)
	s.TopK = getEnvInt("STRUCTURED_OUTPUT_TOP_K", s.TopK)
	s.SystemContext = os.Getenv("STRUCTURED_CONTEXT_SYSTEM")
	s.UserContext = os.Getenv("STRUCTURED_CONTEXT_USER")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// getEnvDuration accepts Go durations ("1.5s") or plain seconds ("2").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
