package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by identifier matches no row.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // timestamp >= From
	To    time.Time // timestamp <= To
}

// Question is a catalog entry. Digest is the SHA-256 of Text.
type Question struct {
	ID       int
	Digest   string
	Text     string
	Category string
}

// Session is a single quiz attempt. Config is the serialized selection
// parameters the session was created with.
type Session struct {
	ID        string
	CreatedAt time.Time
	Config    string
}

// Answer is one response to one question within a session. The pointer
// fields stay nil until the evaluation pipeline fills them.
type Answer struct {
	ID            int
	SessionID     string
	QuestionID    int
	AnswerText    *string
	AudioPath     string
	Duration      *float64
	Score         *int
	Justification *string
	CreatedAt     time.Time

	// Joined from the question row.
	QuestionText string
	Category     string
}

// Processed reports whether the pipeline has written this answer.
func (a *Answer) Processed() bool {
	return a.AnswerText != nil
}

// AnswerResult is the set of fields the pipeline writes to an answer in
// a single update.
type AnswerResult struct {
	AnswerID      int
	Duration      *float64
	AnswerText    *string
	Score         *int
	Justification *string
}

// QuestionStatsRow carries per-question attempt counts and the mean of
// the scored attempts. MeanScore is nil when no attempt has a score.
type QuestionStatsRow struct {
	QuestionID int
	Text       string
	Category   string
	Attempts   int
	MeanScore  *float64
}

// QuestionRepo manages the question catalog.
type QuestionRepo interface {
	// Insert adds a question unless one with the same digest exists.
	// It reports whether a row was created.
	Insert(ctx context.Context, q Question) (bool, error)

	// Get returns a question by id or ErrNotFound.
	Get(ctx context.Context, id int) (*Question, error)

	// ListByIDs returns the questions with the given ids, in id order.
	ListByIDs(ctx context.Context, ids []int) ([]Question, error)

	// Categories returns the distinct category labels, sorted.
	Categories(ctx context.Context) ([]string, error)

	// Stats returns attempt counts and mean scores for every question in
	// the given categories, ordered by question id.
	Stats(ctx context.Context, categories []string) ([]QuestionStatsRow, error)

	// DeleteAll removes every question, session and answer.
	DeleteAll(ctx context.Context) error
}

// SessionRepo manages quiz sessions.
type SessionRepo interface {
	// Create stores a new session with a generated id.
	Create(ctx context.Context, config string) (*Session, error)

	// Get returns a session by id or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// List returns sessions, newest first.
	List(ctx context.Context, opts QueryOpts) ([]Session, error)

	// Delete removes a session and, by cascade, its answers.
	Delete(ctx context.Context, id string) error
}

// AnswerRepo manages answers and the pipeline's write-back.
type AnswerRepo interface {
	// Create stores an unprocessed answer.
	Create(ctx context.Context, sessionID string, questionID int, audioPath string) (*Answer, error)

	// ListBySession returns every answer of the session, in id order.
	ListBySession(ctx context.Context, sessionID string) ([]Answer, error)

	// Pending returns the answers of the session whose transcript is NULL.
	Pending(ctx context.Context, sessionID string) ([]Answer, error)

	// Apply writes one pipeline result. It only touches the answer while
	// its transcript is still NULL and reports whether a row changed.
	Apply(ctx context.Context, res AnswerResult) (bool, error)

	// Reset clears the pipeline fields of every answer in the session and
	// returns the number of answers reset.
	Reset(ctx context.Context, sessionID string) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
// AnswerID is the answer being graded, or 0 for calls made outside the
// pipeline.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	AnswerID     int
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMEventFilter narrows QueryLLMEvents. Empty fields match everything.
type LLMEventFilter struct {
	QueryOpts
	Purpose  string
	AnswerID int
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates LLM usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns the events matching f, newest first.
	QueryLLMEvents(ctx context.Context, f LLMEventFilter) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates token usage and failed calls per
	// purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
