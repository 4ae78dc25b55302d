// Package app wires the store, services and pipeline together for the
// command-line entry points.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/abhisek/quizzer/internal/audio"
	"github.com/abhisek/quizzer/internal/catalog"
	"github.com/abhisek/quizzer/internal/config"
	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/llm"
	"github.com/abhisek/quizzer/internal/pipeline"
	"github.com/abhisek/quizzer/internal/quiz"
	"github.com/abhisek/quizzer/internal/selection"
	"github.com/abhisek/quizzer/internal/stats"
	"github.com/abhisek/quizzer/internal/store"
	"github.com/abhisek/quizzer/internal/stt"
)

// Options configures an App.
type Options struct {
	Config *config.Config
	DBPath string
	Log    zerolog.Logger

	// Rand drives question selection. Nil uses a randomly seeded source.
	Rand *rand.Rand

	// STTFactory and LLMFactory replace the real vendor clients; tests
	// use them to inject mocks.
	STTFactory stt.AdapterFactory
	LLMFactory grading.ProviderFactory
}

// App holds the long-lived components of one command invocation.
type App struct {
	Config *config.Config
	Store  *store.Store
	Log    zerolog.Logger

	Stats    *stats.Aggregator
	Catalog  *catalog.Loader
	Quiz     *quiz.Service
	Pipeline *pipeline.Orchestrator
}

// New opens the database and builds every component.
func New(opts Options) (*App, error) {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := opts.Config
	log := opts.Log

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	llmFactory := opts.LLMFactory
	if llmFactory == nil {
		events := st.EventRepo()
		llmFactory = func(ctx context.Context, c llm.Config) (llm.Provider, error) {
			return llm.NewProvider(ctx, c, events, log)
		}
	}

	var sttOpts []stt.Option
	if opts.STTFactory != nil {
		sttOpts = append(sttOpts, stt.WithAdapterFactory(opts.STTFactory))
	}

	agg := stats.NewAggregator(st.Questions())
	return &App{
		Config:  cfg,
		Store:   st,
		Log:     log,
		Stats:   agg,
		Catalog: catalog.NewLoader(st.Questions(), log),
		Quiz:    quiz.NewService(st, selection.New(agg, rng), cfg.UploadDirFor(opts.DBPath), log),
		Pipeline: pipeline.New(
			st.Answers(),
			stt.NewTranscriber(log, sttOpts...),
			grading.New(llmFactory, log),
			audio.NewMeter(log),
			cfg.Workers,
			log,
		),
	}, nil
}

// Settings snapshots the pipeline configuration, optionally overriding
// the STT backend.
func (a *App) Settings(provider stt.Provider) pipeline.Settings {
	if provider == "" {
		provider = a.Config.STTProvider
	}
	return pipeline.Settings{
		STT:      a.Config.STT,
		Provider: provider,
		Grading:  a.Config.Grading,
	}
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}
