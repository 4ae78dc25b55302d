// Package pipeline turns a session's recorded answers into transcripts,
// durations and grades.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/llm"
	"github.com/abhisek/quizzer/internal/store"
	"github.com/abhisek/quizzer/internal/stt"
)

// AnswerStore is the persistence the orchestrator needs.
type AnswerStore interface {
	Pending(ctx context.Context, sessionID string) ([]store.Answer, error)
	Apply(ctx context.Context, res store.AnswerResult) (bool, error)
}

// Transcriber converts a recording to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, cfg stt.Config, p stt.Provider) (string, error)
}

// Grader scores a transcribed answer. It reports failures in the result.
type Grader interface {
	Grade(ctx context.Context, in grading.Input, cfg grading.Config) grading.Result
}

// DurationMeter measures a recording, returning 0 when it cannot.
type DurationMeter interface {
	Duration(ctx context.Context, path string) float64
}

// Settings is the configuration snapshot for one batch.
type Settings struct {
	STT      stt.Config
	Provider stt.Provider
	Grading  grading.Config
}

// Report summarizes one Process call.
type Report struct {
	Pending     int
	Applied     int
	Failed      int // answers stored with the failure score
	WriteErrors int
	Elapsed     time.Duration
}

// Orchestrator runs the per-answer pipeline over a bounded worker pool.
type Orchestrator struct {
	answers     AnswerStore
	transcriber Transcriber
	grader      Grader
	meter       DurationMeter
	workers     int
	log         zerolog.Logger

	sessions keyedMutex
}

// New creates an Orchestrator. workers <= 0 uses GOMAXPROCS.
func New(answers AnswerStore, transcriber Transcriber, grader Grader, meter DurationMeter, workers int, log zerolog.Logger) *Orchestrator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Orchestrator{
		answers:     answers,
		transcriber: transcriber,
		grader:      grader,
		meter:       meter,
		workers:     workers,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// Process transcribes and grades every unprocessed answer in the session.
// Calls for the same session are serialized; once every answer has a
// transcript, Process is a no-op. Per-answer failures are stored as data
// and never returned; the error reports store failures only.
func (o *Orchestrator) Process(ctx context.Context, sessionID string, settings Settings) (Report, error) {
	unlock := o.sessions.Lock(sessionID)
	defer unlock()

	// In-flight work is not cancellable; a task finishes or the process exits.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := o.log.With().Str("session", sessionID).Logger()

	pending, err := o.answers.Pending(ctx, sessionID)
	if err != nil {
		return Report{}, fmt.Errorf("list pending answers: %w", err)
	}
	report := Report{Pending: len(pending)}
	if len(pending) == 0 {
		log.Debug().Msg("nothing to process")
		return report, nil
	}

	log.Info().Int("answers", len(pending)).Str("stt", string(settings.Provider)).
		Int("workers", o.workers).Msg("processing session")

	results := make([]store.AnswerResult, len(pending))
	var g errgroup.Group
	g.SetLimit(o.workers)
	for i, a := range pending {
		g.Go(func() error {
			results[i] = o.run(ctx, a, settings)
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	sort.Slice(results, func(i, j int) bool { return results[i].AnswerID < results[j].AnswerID })
	for _, res := range results {
		changed, err := o.answers.Apply(ctx, res)
		if err != nil {
			report.WriteErrors++
			log.Error().Err(err).Int("answer", res.AnswerID).Msg("failed to store result")
			continue
		}
		if !changed {
			continue
		}
		report.Applied++
		if res.Score != nil && *res.Score == grading.FailedScore {
			report.Failed++
		}
	}

	report.Elapsed = time.Since(start)
	log.Info().Int("applied", report.Applied).Int("failed", report.Failed).
		Int("write_errors", report.WriteErrors).Dur("elapsed", report.Elapsed).Msg("session processed")
	return report, nil
}

// run processes one answer. It always returns a result with a transcript
// so the answer leaves the pending set.
func (o *Orchestrator) run(ctx context.Context, a store.Answer, s Settings) (res store.AnswerResult) {
	res.AnswerID = a.ID
	log := o.log.With().Int("answer", a.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("answer task panicked")
			res = failedResult(res, fmt.Sprintf("Error: processing failed: %v", r))
		}
	}()

	dur := o.meter.Duration(ctx, a.AudioPath)
	res.Duration = &dur

	text, err := o.transcriber.Transcribe(ctx, a.AudioPath, s.STT, s.Provider)
	if err != nil {
		msg := stt.Describe(err)
		log.Error().Err(err).Msg("transcription failed")
		return failedResult(res, msg)
	}
	res.AnswerText = &text

	grade := o.grader.Grade(llm.WithAnswer(ctx, a.ID), grading.Input{
		Question: a.QuestionText,
		Answer:   text,
		Category: a.Category,
		Duration: res.Duration,
	}, s.Grading)
	res.Score = &grade.Score
	res.Justification = &grade.Justification
	return res
}

// failedResult fills whatever the task could not produce with msg and the
// failure score.
func failedResult(res store.AnswerResult, msg string) store.AnswerResult {
	if res.AnswerText == nil {
		res.AnswerText = &msg
	}
	score := grading.FailedScore
	res.Score = &score
	justification := "Not evaluated. " + msg
	res.Justification = &justification
	return res
}
