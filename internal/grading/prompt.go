package grading

import (
	"fmt"
	"strings"
)

const reasoningInstructions = `You are an expert evaluator in the field of %s. Your task is to provide a detailed, constructive critique of a user's answer to a quiz question.`

const reasoningClosing = `Please provide a clear rationale for why the answer is correct, partially correct, or incorrect. Be encouraging but accurate.
Do not assign a score, only provide the written justification.`

const scoringInstructions = `You are a strict but fair judge. Based on the following quiz question, the user's answer, and a detailed evaluation, please assign a score from 1 to 5.`

const scoringClosing = `Provide only the score from 1 to 5 in the required JSON format.`

// buildSystem joins the configured context with the stage instructions.
func buildSystem(context, instructions string) string {
	if context == "" {
		return instructions
	}
	return context + "\n\n" + instructions
}

// writeAnswerDetails writes the fields both stages see.
func writeAnswerDetails(b *strings.Builder, in Input) {
	fmt.Fprintf(b, "Category: %s\n", in.Category)
	fmt.Fprintf(b, "Question: %q\n", in.Question)
	fmt.Fprintf(b, "User's Answer: %q\n", in.Answer)
	fmt.Fprintf(b, "Answer Duration: %s\n", FormatDuration(in.Duration))
}

func buildReasoningRequest(in Input, stage StageConfig) (system, user string) {
	var b strings.Builder
	writeAnswerDetails(&b, in)
	if stage.UserContext != "" {
		b.WriteString("\n")
		b.WriteString(stage.UserContext)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(reasoningClosing)

	return buildSystem(stage.SystemContext, fmt.Sprintf(reasoningInstructions, in.Category)), b.String()
}

func buildScoringRequest(in Input, justification string, stage StageConfig) (system, user string) {
	var b strings.Builder
	writeAnswerDetails(&b, in)
	fmt.Fprintf(&b, "Evaluation: %q\n", justification)
	if stage.UserContext != "" {
		b.WriteString("\n")
		b.WriteString(stage.UserContext)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(scoringClosing)

	return buildSystem(stage.SystemContext, scoringInstructions), b.String()
}
