package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/store"
	"github.com/abhisek/quizzer/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the LLM calls made while grading answers",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent grading calls",
	Example: `  quizzer llm list --stage grade-score --failed
  quizzer llm list --answer 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		stage, _ := cmd.Flags().GetString("stage")
		answerID, _ := cmd.Flags().GetInt("answer")
		failedOnly, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		f := store.LLMEventFilter{Purpose: stage, AnswerID: answerID}
		// The failure filter runs client-side, so the limit is applied after it.
		if !failedOnly {
			f.Limit = limit
		}
		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if failedOnly {
			events = failedEvents(events, limit)
		}
		if len(events) == 0 {
			fmt.Println("No grading calls found.")
			return nil
		}

		fmt.Printf("%-5s  %-14s  %-9s  %-6s  %-30s  %11s  %7s  %s\n",
			"ID", "When", "Stage", "Answer", "Model", "Tokens", "Latency", "Status")
		fmt.Println(theme.Rule(104))
		for _, e := range events {
			status := "ok"
			if !e.Success {
				status = theme.Failure.Render("failed")
			}
			fmt.Printf("%-5d  %-14s  %-9s  %-6s  %-30s  %11s  %6dms  %s\n",
				e.ID,
				e.Timestamp.Local().Format("Jan 02 15:04:05"),
				grading.StageLabel(e.Purpose),
				answerRef(e.AnswerID),
				truncate(e.Model, 30),
				fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
				e.LatencyMs,
				status,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one grading call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fmt.Println(theme.Title.Render(fmt.Sprintf("Grading call #%d", e.ID)))
		fmt.Println(theme.Field("Stage", grading.StageLabel(e.Purpose)))
		fmt.Println(theme.Field("Answer", answerRef(e.AnswerID)))
		fmt.Println(theme.Field("When", e.Timestamp.Local().Format("2006-01-02 15:04:05")))
		fmt.Println(theme.Field("Model", e.Provider+" / "+e.Model))
		fmt.Println(theme.Field("Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)))
		fmt.Println(theme.Field("Latency", fmt.Sprintf("%dms", e.LatencyMs)))
		if e.Success {
			fmt.Println(theme.Field("Status", "ok"))
		} else {
			fmt.Println(theme.Field("Status", theme.Failure.Render("failed")+" "+e.ErrorMessage))
		}

		for _, part := range []struct{ title, body string }{
			{"Prompt", e.RequestBody},
			{"Reply", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(theme.Heading.Render(part.title))
			fmt.Println(theme.Rule(60))
			if strings.TrimSpace(part.body) == "" {
				fmt.Println(theme.Hint.Render("(not captured)"))
				continue
			}
			fmt.Println(part.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show calls, failures and estimated cost per grading stage",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No answers have been graded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		u := grading.SummarizeUsage(byPurpose, byModel)

		fmt.Println(theme.Heading.Render("Grading stages"))
		fmt.Printf("%-10s  %6s  %8s  %10s  %10s  %10s  %8s\n",
			"Stage", "Calls", "Failed", "Fail rate", "Input", "Output", "Avg ms")
		fmt.Println(theme.Rule(72))
		for _, st := range u.Stages {
			rate := fmt.Sprintf("%9.1f%%", 100*st.FailureRate())
			if st.Failures > 0 {
				rate = theme.Failure.Render(rate)
			}
			fmt.Printf("%-10s  %6d  %8d  %s  %10d  %10d  %8d\n",
				grading.StageLabel(st.Purpose), st.Calls, st.Failures, rate,
				st.InputTokens, st.OutputTokens, st.AvgLatencyMs)
		}

		if len(u.Models) == 0 {
			return nil
		}
		fmt.Println()
		fmt.Println(theme.Heading.Render("Estimated cost (USD, successful calls)"))
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(theme.Rule(76))
		for _, m := range u.Models {
			cost := "?"
			if m.Priced {
				cost = formatCost(m.Cost)
			}
			fmt.Printf("%-32s  %6d  %10d  %10d  %10s\n",
				truncate(m.Model, 32), m.Calls, m.InputTokens, m.OutputTokens, cost)
		}
		fmt.Println(theme.Rule(76))
		label := "TOTAL"
		if len(u.Unpriced) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Printf("%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(u.TotalCost))
		if len(u.Unpriced) > 0 {
			fmt.Println(theme.Hint.Render("No pricing for: " + strings.Join(u.Unpriced, ", ")))
		}
		return nil
	},
}

func failedEvents(events []store.LLMRequestEventRecord, limit int) []store.LLMRequestEventRecord {
	var out []store.LLMRequestEventRecord
	for _, e := range events {
		if e.Success {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func answerRef(id int) string {
	if id == 0 {
		return "-"
	}
	return "#" + strconv.Itoa(id)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("stage", "s", "", "Only this stage (grade-reasoning, grade-score)")
	llmListCmd.Flags().IntP("answer", "a", 0, "Only calls made while grading this answer id")
	llmListCmd.Flags().Bool("failed", false, "Only failed calls")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
