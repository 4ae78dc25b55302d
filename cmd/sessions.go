package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/app"
	"github.com/abhisek/quizzer/internal/grading"
	"github.com/abhisek/quizzer/internal/store"
	"github.com/abhisek/quizzer/internal/ui/theme"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect quiz sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		sessions, err := a.Store.Sessions().List(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-9s  %-9s  %s\n", "ID", "Started", "Answers", "Pending", "Mean")
		fmt.Println(theme.Rule(90))
		for _, s := range sessions {
			res, err := a.Quiz.Results(ctx, s.ID)
			if err != nil {
				return err
			}
			mean := "-"
			if res.MeanScore != nil {
				mean = fmt.Sprintf("%.1f", *res.MeanScore)
			}
			fmt.Printf("%-36s  %-19s  %-9d  %-9d  %s\n",
				s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				len(res.Answers), res.Pending, mean)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a session's answers and grades",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return showSession(cmd, a, args[0])
	},
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session>",
	Short: "Export a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Quiz.Export(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if out == "" || out == "-" {
			_, err = fmt.Println(string(data))
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported session to %s\n", out)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Delete a session, its answers and recordings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Quiz.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted session", args[0])
		return nil
	},
}

// showSession prints every answer of a session as a card.
func showSession(cmd *cobra.Command, a *app.App, sessionID string) error {
	res, err := a.Quiz.Results(cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	fmt.Println(theme.Title.Render("Session " + res.Session.ID))
	fmt.Println(theme.Field("Started", res.Session.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	if len(res.Config.Categories) > 0 {
		fmt.Println(theme.Field("Categories", strings.Join(res.Config.Categories, ", ")))
	}
	mean := "-"
	if res.MeanScore != nil {
		mean = fmt.Sprintf("%.2f", *res.MeanScore)
	}
	fmt.Println(theme.Field("Answers", fmt.Sprintf("%d processed, %d pending", res.Processed, res.Pending)))
	fmt.Println(theme.Field("Mean score", mean))

	for i, ans := range res.Answers {
		var b strings.Builder
		b.WriteString(theme.Heading.Render(fmt.Sprintf("%d. %s", i+1, ans.QuestionText)))
		b.WriteString("\n")
		b.WriteString(theme.Field("Category", ans.Category) + "\n")
		b.WriteString(theme.Field("Duration", grading.FormatDuration(ans.Duration)) + "\n")
		b.WriteString(theme.Field("Score", theme.Score(ans.Score)) + "\n")
		if ans.AnswerText != nil {
			b.WriteString(theme.Field("Answer", *ans.AnswerText) + "\n")
		}
		if ans.Justification != nil {
			b.WriteString("\n" + *ans.Justification)
		}
		fmt.Println()
		fmt.Println(theme.Card.Width(100).Render(strings.TrimRight(b.String(), "\n")))
	}
	return nil
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
	sessionsExportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
