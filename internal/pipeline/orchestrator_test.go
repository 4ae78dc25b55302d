package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/llm"
	"github.com/abhisek/quizzer/internal/store"
	"github.com/abhisek/quizzer/internal/stt"
)

type fakeGrader struct {
	calls   atomic.Int32
	panicOn string
	answers sync.Map // question text -> answer id carried by the context
}

func (g *fakeGrader) Grade(ctx context.Context, in grading.Input, _ grading.Config) grading.Result {
	g.calls.Add(1)
	if id, ok := llm.AnswerFrom(ctx); ok {
		g.answers.Store(in.Question, id)
	}
	if in.Question == g.panicOn {
		panic("forced failure")
	}
	return grading.Result{Score: 4, Justification: "Good answer to " + in.Question}
}

type fixedDuration float64

func (p fixedDuration) Duration(context.Context, string) float64 { return float64(p) }

type fixture struct {
	store   *store.Store
	session string
	answers []store.Answer
}

func newFixture(t *testing.T, n int) fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	sess, err := s.Sessions().Create(ctx, "{}")
	require.NoError(t, err)

	for i := 1; i <= n; i++ {
		text := fmt.Sprintf("question %d", i)
		_, err := s.Questions().Insert(ctx, store.Question{Digest: fmt.Sprintf("d%d", i), Text: text, Category: "History"})
		require.NoError(t, err)
	}
	rows, err := s.Questions().Stats(ctx, []string{"History"})
	require.NoError(t, err)
	for _, q := range rows {
		_, err := s.Answers().Create(ctx, sess.ID, q.QuestionID, fmt.Sprintf("/audio/q%d.webm", q.QuestionID))
		require.NoError(t, err)
	}
	answers, err := s.Answers().ListBySession(ctx, sess.ID)
	require.NoError(t, err)
	return fixture{store: s, session: sess.ID, answers: answers}
}

func settings() Settings {
	cfg := stt.DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return Settings{STT: cfg, Provider: stt.Deepgram, Grading: grading.DefaultConfig()}
}

func echoAdapter() *stt.MockAdapter {
	return stt.NewMockAdapter(stt.Deepgram, func(path string, _ int) (string, error) {
		return "spoken " + filepath.Base(path), nil
	})
}

func TestProcess_HappyPath(t *testing.T) {
	f := newFixture(t, 3)
	adapter := echoAdapter()
	grader := &fakeGrader{}
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(adapter.Factory())),
		grader, fixedDuration(12.5), 2, zerolog.Nop())

	report, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pending)
	assert.Equal(t, 3, report.Applied)
	assert.Zero(t, report.Failed)

	answers, err := f.store.Answers().ListBySession(context.Background(), f.session)
	require.NoError(t, err)
	for _, a := range answers {
		require.True(t, a.Processed())
		assert.Equal(t, "spoken "+filepath.Base(a.AudioPath), *a.AnswerText)
		assert.Equal(t, 12.5, *a.Duration)
		assert.Equal(t, 4, *a.Score)
		assert.Equal(t, "Good answer to "+a.QuestionText, *a.Justification)

		id, ok := grader.answers.Load(a.QuestionText)
		require.True(t, ok, "grading context must carry the answer id")
		assert.Equal(t, a.ID, id)
	}
}

func TestProcess_IsIdempotent(t *testing.T) {
	f := newFixture(t, 4)
	adapter := echoAdapter()
	grader := &fakeGrader{}
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(adapter.Factory())),
		grader, fixedDuration(3), 0, zerolog.Nop())

	_, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	sttCalls, gradeCalls := adapter.TotalCalls(), grader.calls.Load()

	report, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Zero(t, report.Pending)
	assert.Equal(t, sttCalls, adapter.TotalCalls(), "second run must not transcribe")
	assert.Equal(t, gradeCalls, grader.calls.Load(), "second run must not grade")
}

func TestProcess_OneFailingTaskDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t, 5)
	adapter := echoAdapter()
	grader := &fakeGrader{panicOn: "question 3"}
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(adapter.Factory())),
		grader, fixedDuration(8), 5, zerolog.Nop())

	report, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Applied)
	assert.Equal(t, 1, report.Failed)

	answers, err := f.store.Answers().ListBySession(context.Background(), f.session)
	require.NoError(t, err)
	full := 0
	for _, a := range answers {
		require.True(t, a.Processed(), "answer %d left pending", a.ID)
		if a.QuestionText == "question 3" {
			assert.Equal(t, grading.FailedScore, *a.Score)
			assert.Contains(t, *a.Justification, "forced failure")
			assert.Equal(t, "spoken "+filepath.Base(a.AudioPath), *a.AnswerText, "transcript is kept")
			continue
		}
		assert.Equal(t, 4, *a.Score)
		assert.NotNil(t, a.Duration)
		full++
	}
	assert.Equal(t, 4, full)
}

func TestProcess_TranscriptionFailureSkipsGrading(t *testing.T) {
	f := newFixture(t, 2)
	adapter := stt.NewMockAdapter(stt.Deepgram, func(path string, _ int) (string, error) {
		if strings.HasSuffix(path, "q1.webm") {
			return "", errors.New("HTTP 500: internal")
		}
		return "fine", nil
	})
	grader := &fakeGrader{}
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(adapter.Factory())),
		grader, fixedDuration(1), 2, zerolog.Nop())

	_, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Equal(t, int32(1), grader.calls.Load())
	assert.Equal(t, 3, adapter.Calls("/audio/q1.webm"), "failed recording is retried")

	answers, _ := f.store.Answers().ListBySession(context.Background(), f.session)
	for _, a := range answers {
		if a.QuestionID != 1 {
			continue
		}
		assert.Equal(t, "Error: Could not transcribe audio with Deepgram after 3 attempts. HTTP 500: internal", *a.AnswerText)
		assert.Equal(t, 0, *a.Score)
		assert.Contains(t, *a.Justification, "Not evaluated.")
	}
}

func TestProcess_MissingCredentialBecomesData(t *testing.T) {
	f := newFixture(t, 1)
	grader := &fakeGrader{}
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop()), grader, fixedDuration(1), 1, zerolog.Nop())

	report, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	answers, _ := f.store.Answers().ListBySession(context.Background(), f.session)
	assert.Equal(t, "Error: DEEPGRAM_API_KEY not configured.", *answers[0].AnswerText)
	assert.Zero(t, grader.calls.Load())
}

func TestProcess_ConcurrentCallsProcessOnce(t *testing.T) {
	f := newFixture(t, 5)
	adapter := stt.NewMockAdapter(stt.Deepgram, func(string, int) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return "text", nil
	})
	o := New(f.store.Answers(), stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(adapter.Factory())),
		&fakeGrader{}, fixedDuration(1), 3, zerolog.Nop())

	var wg sync.WaitGroup
	applied := make([]int, 3)
	for i := range applied {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := o.Process(context.Background(), f.session, settings())
			assert.NoError(t, err)
			applied[i] = r.Applied
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, applied[0]+applied[1]+applied[2])
	assert.Equal(t, 5, adapter.TotalCalls())
}

type failingStore struct {
	AnswerStore
	pendingErr error
	applyErr   error
}

func (s failingStore) Pending(ctx context.Context, id string) ([]store.Answer, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	return s.AnswerStore.Pending(ctx, id)
}

func (s failingStore) Apply(context.Context, store.AnswerResult) (bool, error) {
	return false, s.applyErr
}

func TestProcess_StoreErrors(t *testing.T) {
	f := newFixture(t, 2)
	tr := stt.NewTranscriber(zerolog.Nop(), stt.WithAdapterFactory(echoAdapter().Factory()))

	o := New(failingStore{AnswerStore: f.store.Answers(), pendingErr: errors.New("locked")}, tr, &fakeGrader{}, fixedDuration(1), 1, zerolog.Nop())
	_, err := o.Process(context.Background(), f.session, settings())
	assert.ErrorContains(t, err, "locked")

	o = New(failingStore{AnswerStore: f.store.Answers(), applyErr: errors.New("disk full")}, tr, &fakeGrader{}, fixedDuration(1), 1, zerolog.Nop())
	report, err := o.Process(context.Background(), f.session, settings())
	require.NoError(t, err)
	assert.Equal(t, 2, report.WriteErrors)
	assert.Zero(t, report.Applied)
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex
	unlockA := k.Lock("a")

	done := make(chan struct{})
	go func() {
		unlockB := k.Lock("b") // different key, must not block
		unlockB()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}

	unlockA()
	k.Lock("a")()
	assert.Empty(t, k.locks)
}
