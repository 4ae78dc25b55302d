package grading

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/abhisek/quizzer/internal/llm"
)

// stageFactory hands out one mock per stage and records the model each
// stage asked for.
type stageFactory struct {
	mu        sync.Mutex
	reasoning *llm.MockProvider
	scoring   *llm.MockProvider
	models    []string
}

func (f *stageFactory) build(_ context.Context, cfg llm.Config) (llm.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.models = append(f.models, cfg.Model())
	if len(f.models) == 1 {
		return f.reasoning, nil
	}
	return f.scoring, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LLM.OpenRouter.APIKey = "sk-or-test"
	return cfg
}

func testInput() Input {
	d := 75.4
	return Input{
		Question: "Why did the Western Roman Empire fall?",
		Answer:   "Economic decline and invasions.",
		Category: "History",
		Duration: &d,
	}
}

func TestGrade_TwoStages(t *testing.T) {
	f := &stageFactory{
		reasoning: llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("Partially correct.\n\n\n\nMentions invasions but not political instability.")}),
		scoring:   llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"score":3}`)}),
	}
	g := New(f.build, zerolog.Nop())

	res := g.Grade(context.Background(), testInput(), testConfig())
	if res.Score != 3 {
		t.Fatalf("score = %d, want 3 (justification %q)", res.Score, res.Justification)
	}
	if res.Justification != "Partially correct.\n\nMentions invasions but not political instability." {
		t.Errorf("justification = %q", res.Justification)
	}
	if res.Failed() {
		t.Error("expected a successful grade")
	}

	if len(f.models) != 2 || f.models[0] != "google/gemini-2.5-pro" || f.models[1] != "openai/gpt-4o" {
		t.Errorf("stage models = %v", f.models)
	}

	reasonReq := f.reasoning.Calls[0]
	if reasonReq.Schema != nil {
		t.Error("reasoning stage must not request structured output")
	}
	if reasonReq.Temperature != 0.4 || reasonReq.TopK != 10 {
		t.Errorf("reasoning sampling = %v/%d", reasonReq.Temperature, reasonReq.TopK)
	}
	if !strings.Contains(reasonReq.Messages[0].Content, "Answer Duration: 1 min 15 sec") {
		t.Errorf("reasoning prompt missing duration:\n%s", reasonReq.Messages[0].Content)
	}

	scoreReq := f.scoring.Calls[0]
	if scoreReq.Schema != ScoreSchema {
		t.Error("scoring stage must request the score schema")
	}
	if !strings.Contains(scoreReq.Messages[0].Content, "Mentions invasions") {
		t.Error("scoring prompt must carry the justification")
	}
}

func TestGrade_MissingKeyMakesNoCalls(t *testing.T) {
	calls := 0
	g := New(func(context.Context, llm.Config) (llm.Provider, error) {
		calls++
		return llm.NewMockProvider(), nil
	}, zerolog.Nop())

	cfg := DefaultConfig() // no key
	res := g.Grade(context.Background(), testInput(), cfg)
	if res.Score != FailedScore {
		t.Fatalf("score = %d, want 0", res.Score)
	}
	if res.Justification != "Error: OPENROUTER_API_KEY not configured." {
		t.Errorf("justification = %q", res.Justification)
	}
	if calls != 0 {
		t.Errorf("factory called %d times, want 0", calls)
	}
}

func TestGrade_FailurePaths(t *testing.T) {
	tests := []struct {
		name      string
		reasoning llm.MockResponse
		scoring   llm.MockResponse
		wantSub   string
	}{
		{
			name:      "reasoning provider error",
			reasoning: llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("timeout")}},
			wantSub:   "reasoning stage",
		},
		{
			name:      "empty justification",
			reasoning: llm.MockResponse{Content: json.RawMessage("   ")},
			wantSub:   "empty justification",
		},
		{
			name:      "scoring provider error",
			reasoning: llm.MockResponse{Content: json.RawMessage("fine")},
			scoring:   llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: errors.New("schema validation failed")}},
			wantSub:   "scoring stage",
		},
		{
			name:      "malformed score",
			reasoning: llm.MockResponse{Content: json.RawMessage("fine")},
			scoring:   llm.MockResponse{Content: json.RawMessage(`score: 4`)},
			wantSub:   "parse score",
		},
		{
			name:      "score out of range",
			reasoning: llm.MockResponse{Content: json.RawMessage("fine")},
			scoring:   llm.MockResponse{Content: json.RawMessage(`{"score":0}`)},
			wantSub:   "outside 1-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stageFactory{
				reasoning: llm.NewMockProvider(tt.reasoning),
				scoring:   llm.NewMockProvider(tt.scoring),
			}
			res := New(f.build, zerolog.Nop()).Grade(context.Background(), testInput(), testConfig())
			if res.Score != FailedScore {
				t.Fatalf("score = %d, want 0", res.Score)
			}
			if !strings.HasPrefix(res.Justification, "An error occurred during evaluation: ") {
				t.Errorf("justification = %q", res.Justification)
			}
			if !strings.Contains(res.Justification, tt.wantSub) {
				t.Errorf("justification %q missing %q", res.Justification, tt.wantSub)
			}
		})
	}
}

func TestGrade_FactoryError(t *testing.T) {
	g := New(func(context.Context, llm.Config) (llm.Provider, error) {
		return nil, errors.New("dial failed")
	}, zerolog.Nop())

	res := g.Grade(context.Background(), testInput(), testConfig())
	if res.Score != FailedScore || !strings.Contains(res.Justification, "dial failed") {
		t.Fatalf("result = %+v", res)
	}
}

func TestGrade_RecoversPanic(t *testing.T) {
	g := New(func(context.Context, llm.Config) (llm.Provider, error) {
		panic("nil map")
	}, zerolog.Nop())

	res := g.Grade(context.Background(), testInput(), testConfig())
	if res.Score != FailedScore || !strings.Contains(res.Justification, "panic: nil map") {
		t.Fatalf("result = %+v", res)
	}
}

func TestGrade_ScoreAlwaysInRange(t *testing.T) {
	for _, content := range []string{`{"score":1}`, `{"score":5}`, `{"score":6}`, `{"score":-1}`, `{}`, `null`} {
		f := &stageFactory{
			reasoning: llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("ok")}),
			scoring:   llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(content)}),
		}
		res := New(f.build, zerolog.Nop()).Grade(context.Background(), testInput(), testConfig())
		if res.Score < 0 || res.Score > 5 {
			t.Errorf("%s: score %d outside 0-5", content, res.Score)
		}
		if (res.Score == FailedScore) != strings.HasPrefix(res.Justification, "An error occurred") {
			t.Errorf("%s: score 0 must coincide with an error path, got %+v", content, res)
		}
	}
}
