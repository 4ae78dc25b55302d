package grading

import "github.com/abhisek/quizzer/internal/llm"

// ScoreSchema constrains the structured stage to a single 1-5 integer.
var ScoreSchema = &llm.Schema{
	Name:        "answer-score",
	Description: "The score for a quiz answer from 1 to 5, where 1 is poor and 5 is excellent",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     5,
				"description": "The score from 1 to 5, where 1 is poor and 5 is excellent.",
			},
		},
		"required":             []any{"score"},
		"additionalProperties": false,
	},
}

// scoreOutput is the raw structured-stage response.
type scoreOutput struct {
	Score int `json:"score"`
}
