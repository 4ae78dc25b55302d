package llm

import "context"

type callKey struct{}

// call identifies the work an LLM request is made for. It travels in the
// context so the logging decorator can attribute events without widening
// Request.
type call struct {
	stage    string
	answerID int
}

// UnlabeledStage is reported for requests made without WithStage.
const UnlabeledStage = "unlabeled"

func callFrom(ctx context.Context) call {
	c, _ := ctx.Value(callKey{}).(call)
	return c
}

// WithStage labels requests made with ctx as belonging to stage, e.g. the
// reasoning or scoring step of grading. An answer id set earlier is kept.
func WithStage(ctx context.Context, stage string) context.Context {
	c := callFrom(ctx)
	c.stage = stage
	return context.WithValue(ctx, callKey{}, c)
}

// WithAnswer links requests made with ctx to the answer being graded.
func WithAnswer(ctx context.Context, answerID int) context.Context {
	c := callFrom(ctx)
	c.answerID = answerID
	return context.WithValue(ctx, callKey{}, c)
}

// StageFrom returns the stage label, or UnlabeledStage.
func StageFrom(ctx context.Context) string {
	if s := callFrom(ctx).stage; s != "" {
		return s
	}
	return UnlabeledStage
}

// AnswerFrom returns the linked answer id and whether one was set.
func AnswerFrom(ctx context.Context) (int, bool) {
	id := callFrom(ctx).answerID
	return id, id > 0
}
