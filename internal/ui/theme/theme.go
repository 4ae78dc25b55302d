package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Card frames one answer in the results view.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// ScoreStyle colors a 1-5 score; 0 marks a failed evaluation.
func ScoreStyle(score int) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch {
	case score <= 0:
		return s.Foreground(Error)
	case score <= 2:
		return s.Foreground(Accent)
	case score == 3:
		return s.Foreground(Warning)
	default:
		return s.Foreground(Success)
	}
}

// Score renders a score as "4/5" with stars, "failed" for 0 and
// "pending" for nil.
func Score(score *int) string {
	if score == nil {
		return Hint.Render("pending")
	}
	if *score <= 0 {
		return ScoreStyle(0).Render("failed")
	}
	n := min(*score, 5)
	return ScoreStyle(n).Render(fmt.Sprintf("%d/5 %s%s", n, strings.Repeat("★", n), strings.Repeat("☆", 5-n)))
}

// Rule is a horizontal separator of width cells.
func Rule(width int) string {
	return lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", width))
}

// Field renders "label: value" with a dimmed, padded label.
func Field(label, value string) string {
	return Label.Render(fmt.Sprintf("%-14s", label+":")) + " " + value
}
