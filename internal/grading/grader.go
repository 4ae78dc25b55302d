// Package grading scores transcribed answers with a two-stage LLM chain:
// a reasoning model writes the justification, then a structured-output
// model turns it into a 1-5 score.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/quizzer/internal/llm"
)

// FailedScore marks an answer whose grading did not complete. Models only
// ever assign 1-5.
const FailedScore = 0

// LLM purposes recorded with every request.
const (
	PurposeReasoning = "grade-reasoning"
	PurposeScore     = "grade-score"
)

// Input is one answer to grade.
type Input struct {
	Question string
	Answer   string
	Category string

	// Duration is the recording length in seconds, nil when unknown.
	Duration *float64
}

// Result is the grade stored on the answer.
type Result struct {
	Score         int
	Justification string
}

// Failed reports whether grading fell back to the sentinel score.
func (r Result) Failed() bool { return r.Score == FailedScore }

// ProviderFactory builds an LLM provider for one stage.
type ProviderFactory func(ctx context.Context, cfg llm.Config) (llm.Provider, error)

// StageError tags a failure with the stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Grader runs the two grading stages.
type Grader struct {
	newProvider ProviderFactory
	log         zerolog.Logger
}

// New creates a Grader that obtains providers from factory.
func New(factory ProviderFactory, log zerolog.Logger) *Grader {
	return &Grader{
		newProvider: factory,
		log:         log.With().Str("component", "grader").Logger(),
	}
}

// Grade scores one answer. It never returns an error: any failure in
// either stage yields FailedScore with the reason as justification.
func (g *Grader) Grade(ctx context.Context, in Input, cfg Config) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Msg("grading panicked")
			res = failure(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := cfg.LLM.Validate(); err != nil {
		var noKey *llm.ErrMissingAPIKey
		if errors.As(err, &noKey) {
			return Result{Score: FailedScore, Justification: fmt.Sprintf("Error: %s not configured.", noKey.Setting)}
		}
		return failure(err)
	}

	justification, err := g.reason(ctx, in, cfg)
	if err != nil {
		g.log.Error().Err(err).Str("category", in.Category).Msg("grading failed")
		return failure(err)
	}

	score, err := g.score(ctx, in, justification, cfg)
	if err != nil {
		g.log.Error().Err(err).Str("category", in.Category).Msg("grading failed")
		return failure(err)
	}

	return Result{Score: score, Justification: justification}
}

func failure(err error) Result {
	return Result{
		Score:         FailedScore,
		Justification: fmt.Sprintf("An error occurred during evaluation: %v", err),
	}
}

// reason runs the free-text stage and returns the justification.
func (g *Grader) reason(ctx context.Context, in Input, cfg Config) (string, error) {
	system, user := buildReasoningRequest(in, cfg.Reasoning)
	resp, err := g.generate(llm.WithStage(ctx, PurposeReasoning), cfg.LLM, cfg.Reasoning, llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
	})
	if err != nil {
		return "", &StageError{Stage: "reasoning", Err: err}
	}

	justification := normalizeWhitespace(resp.Text())
	if justification == "" {
		return "", &StageError{Stage: "reasoning", Err: errors.New("empty justification")}
	}
	return justification, nil
}

// score runs the structured stage and returns a validated 1-5 score.
func (g *Grader) score(ctx context.Context, in Input, justification string, cfg Config) (int, error) {
	system, user := buildScoringRequest(in, justification, cfg.Structured)
	resp, err := g.generate(llm.WithStage(ctx, PurposeScore), cfg.LLM, cfg.Structured, llm.Request{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: user}},
		Schema:   ScoreSchema,
	})
	if err != nil {
		return 0, &StageError{Stage: "scoring", Err: err}
	}

	var out scoreOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return 0, &StageError{Stage: "scoring", Err: fmt.Errorf("parse score: %w", err)}
	}
	if out.Score < 1 || out.Score > 5 {
		return 0, &StageError{Stage: "scoring", Err: fmt.Errorf("score %d outside 1-5", out.Score)}
	}
	return out.Score, nil
}

func (g *Grader) generate(ctx context.Context, base llm.Config, stage StageConfig, req llm.Request) (*llm.Response, error) {
	cfg := base.WithModel(stage.Model)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	provider, err := g.newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	req.MaxTokens = stage.MaxTokens
	req.Temperature = stage.Temperature
	req.TopK = stage.TopK

	g.log.Debug().Str("purpose", llm.StageFrom(ctx)).Str("model", provider.ModelID()).Msg("grading stage")
	return provider.Generate(ctx, req)
}

// normalizeWhitespace collapses runs of blank lines in a justification.
func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
