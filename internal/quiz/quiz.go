// Package quiz manages the lifecycle of a quiz session: starting it,
// collecting recorded answers and reading back the evaluated results.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/quizzer/internal/selection"
	"github.com/abhisek/quizzer/internal/store"
)

// Selection defaults.
const (
	DefaultCount             = 5
	DefaultAttemptMultiplier = 1.2
	DefaultScoreMultiplier   = 0.8
)

// ErrNoCategories is returned by Start when no category was chosen.
var ErrNoCategories = errors.New("at least one category is required")

// ErrNegativeMultiplier is returned by Start for a multiplier below zero.
var ErrNegativeMultiplier = errors.New("multipliers must not be negative")

// ErrNotInSession is returned by SubmitAnswer for a question the session
// did not select.
var ErrNotInSession = errors.New("question is not part of the session")

// ErrNoQuestions is returned by Start when the categories hold no questions.
var ErrNoQuestions = errors.New("no questions in the selected categories")

// StartParams are the user's choices for a new session.
type StartParams struct {
	Categories        []string `json:"categories"`
	Count             int      `json:"count"`
	AttemptMultiplier float64  `json:"attempt_multiplier"`
	ScoreMultiplier   float64  `json:"score_multiplier"`
	STTProvider       string   `json:"stt_provider,omitempty"`
}

// NewStartParams returns params for categories with the default count
// and multipliers.
func NewStartParams(categories ...string) StartParams {
	return StartParams{
		Categories:        categories,
		Count:             DefaultCount,
		AttemptMultiplier: DefaultAttemptMultiplier,
		ScoreMultiplier:   DefaultScoreMultiplier,
	}
}

// validate checks p. Zero multipliers are valid and taken as given.
func (p StartParams) validate() error {
	if len(p.Categories) == 0 {
		return ErrNoCategories
	}
	if p.Count <= 0 {
		return fmt.Errorf("question count must be positive, got %d", p.Count)
	}
	if p.AttemptMultiplier < 0 || math.IsNaN(p.AttemptMultiplier) {
		return fmt.Errorf("%w: attempt multiplier %v", ErrNegativeMultiplier, p.AttemptMultiplier)
	}
	if p.ScoreMultiplier < 0 || math.IsNaN(p.ScoreMultiplier) {
		return fmt.Errorf("%w: score multiplier %v", ErrNegativeMultiplier, p.ScoreMultiplier)
	}
	return nil
}

// SessionConfig is what a session records about how it was created.
type SessionConfig struct {
	StartParams
	QuestionIDs []int `json:"question_ids"`
}

// Started is a newly created session with its questions in order.
type Started struct {
	Session   store.Session
	Questions []store.Question
}

// Service ties selection, storage and uploads together.
type Service struct {
	store     *store.Store
	selector  *selection.Selector
	uploadDir string
	log       zerolog.Logger
}

// NewService creates a Service storing recordings under uploadDir.
func NewService(st *store.Store, selector *selection.Selector, uploadDir string, log zerolog.Logger) *Service {
	return &Service{
		store:     st,
		selector:  selector,
		uploadDir: uploadDir,
		log:       log.With().Str("component", "quiz").Logger(),
	}
}

// Start selects questions and creates a session for them.
func (s *Service) Start(ctx context.Context, p StartParams) (*Started, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	picked, err := s.selector.Select(ctx, selection.Params{
		Categories:        p.Categories,
		Count:             p.Count,
		AttemptMultiplier: p.AttemptMultiplier,
		ScoreMultiplier:   p.ScoreMultiplier,
	})
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	if len(picked) == 0 {
		return nil, ErrNoQuestions
	}

	cfg := SessionConfig{StartParams: p, QuestionIDs: make([]int, len(picked))}
	questions := make([]store.Question, len(picked))
	for i, q := range picked {
		cfg.QuestionIDs[i] = q.QuestionID
		questions[i] = store.Question{ID: q.QuestionID, Text: q.Text, Category: q.Category}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode session config: %w", err)
	}

	sess, err := s.store.Sessions().Create(ctx, string(raw))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session", sess.ID).Strs("categories", p.Categories).
		Ints("questions", cfg.QuestionIDs).Msg("session started")
	return &Started{Session: *sess, Questions: questions}, nil
}

// SubmitAnswer copies the recording at audioSrc into the upload area and
// records an unprocessed answer for it. The question must belong to the
// session. The first recording of a question is stored as
// question_<id><ext>; later ones get a _<n> suffix so earlier answers keep
// their audio.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, questionID int, audioSrc string) (*store.Answer, error) {
	sess, err := s.store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Questions().Get(ctx, questionID); err != nil {
		return nil, err
	}
	var cfg SessionConfig
	if err := json.Unmarshal([]byte(sess.Config), &cfg); err == nil && len(cfg.QuestionIDs) > 0 &&
		!slices.Contains(cfg.QuestionIDs, questionID) {
		return nil, fmt.Errorf("%w: question %d, session %s", ErrNotInSession, questionID, sessionID)
	}

	existing, err := s.store.Answers().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("question_%d", questionID)
	if n := countFor(existing, questionID); n > 0 {
		name = fmt.Sprintf("%s_%d", name, n+1)
	}

	dst := filepath.Join(s.uploadDir, sessionID, name+filepath.Ext(audioSrc))
	if err := copyFile(audioSrc, dst); err != nil {
		return nil, fmt.Errorf("store recording: %w", err)
	}

	a, err := s.store.Answers().Create(ctx, sessionID, questionID, dst)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("session", sessionID).Int("question", questionID).Str("audio", dst).Msg("answer recorded")
	return a, nil
}

func countFor(answers []store.Answer, questionID int) int {
	n := 0
	for _, a := range answers {
		if a.QuestionID == questionID {
			n++
		}
	}
	return n
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Results is a session with its answers.
type Results struct {
	Session   store.Session
	Config    SessionConfig
	Answers   []store.Answer
	Processed int
	Pending   int

	// MeanScore averages the scores above the failure sentinel; nil when
	// there are none.
	MeanScore *float64
}

// Results loads a session and its answers.
func (s *Service) Results(ctx context.Context, sessionID string) (*Results, error) {
	sess, err := s.store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.Answers().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r := &Results{Session: *sess, Answers: answers}
	if sess.Config != "" {
		// Older or hand-edited configs are shown without their params.
		_ = json.Unmarshal([]byte(sess.Config), &r.Config)
	}

	var sum float64
	var scored int
	for _, a := range answers {
		if !a.Processed() {
			r.Pending++
			continue
		}
		r.Processed++
		if a.Score != nil && *a.Score > 0 {
			sum += float64(*a.Score)
			scored++
		}
	}
	if scored > 0 {
		mean := sum / float64(scored)
		r.MeanScore = &mean
	}
	return r, nil
}

// ExportedAnswer is one answer in an export document.
type ExportedAnswer struct {
	QuestionID    int       `json:"question_id"`
	Question      string    `json:"question"`
	Category      string    `json:"category"`
	Answer        *string   `json:"answer"`
	Score         *int      `json:"score"`
	Justification *string   `json:"justification"`
	Duration      *float64  `json:"duration"`
	AudioPath     string    `json:"audio_path"`
	Timestamp     time.Time `json:"timestamp"`
}

// Export is the JSON document written by Export.
type Export struct {
	SessionID string           `json:"session_id"`
	StartTime time.Time        `json:"start_time"`
	Config    json.RawMessage  `json:"config"`
	Answers   []ExportedAnswer `json:"answers"`
}

// Export renders the session and all its answers as indented JSON.
func (s *Service) Export(ctx context.Context, sessionID string) ([]byte, error) {
	r, err := s.Results(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doc := Export{
		SessionID: r.Session.ID,
		StartTime: r.Session.CreatedAt,
		Config:    json.RawMessage("null"),
		Answers:   make([]ExportedAnswer, len(r.Answers)),
	}
	if json.Valid([]byte(r.Session.Config)) {
		doc.Config = json.RawMessage(r.Session.Config)
	}
	for i, a := range r.Answers {
		doc.Answers[i] = ExportedAnswer{
			QuestionID:    a.QuestionID,
			Question:      a.QuestionText,
			Category:      a.Category,
			Answer:        a.AnswerText,
			Score:         a.Score,
			Justification: a.Justification,
			Duration:      a.Duration,
			AudioPath:     a.AudioPath,
			Timestamp:     a.CreatedAt,
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Reprocess clears the evaluation of every answer in the session so the
// pipeline picks them up again. It returns the number of answers reset.
func (s *Service) Reprocess(ctx context.Context, sessionID string) (int, error) {
	if _, err := s.store.Sessions().Get(ctx, sessionID); err != nil {
		return 0, err
	}
	n, err := s.store.Answers().Reset(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("session", sessionID).Int("answers", n).Msg("session reset for reprocessing")
	return n, nil
}

// Delete removes a session, its answers and its uploaded recordings.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Sessions().Delete(ctx, sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.uploadDir, sessionID)); err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Msg("failed to remove recordings")
	}
	return nil
}
