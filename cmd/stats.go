package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/stats"
	"github.com/abhisek/quizzer/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show attempts and mean scores per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, _ := cmd.Flags().GetStringSlice("category")
		verbose, _ := cmd.Flags().GetBool("questions")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if len(categories) == 0 {
			if categories, err = a.Store.Questions().Categories(ctx); err != nil {
				return err
			}
		}
		qs, err := a.Stats.Collect(ctx, categories)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			fmt.Println("No questions loaded.")
			return nil
		}

		fmt.Printf("%-28s  %9s  %9s  %9s  %10s\n", "Category", "Questions", "Scored", "Attempts", "Mean score")
		fmt.Println(theme.Rule(74))
		for _, c := range stats.ByCategory(qs) {
			fmt.Printf("%-28s  %9d  %9d  %9.2f  %10s\n",
				truncate(c.Category, 28), c.Questions, c.Scored, c.MeanAttempts, meanScore(c.Summary))
		}
		total := stats.Summarize(qs)
		fmt.Println(theme.Rule(74))
		fmt.Printf("%-28s  %9d  %9d  %9.2f  %10s\n", "TOTAL", total.Questions, total.Scored, total.MeanAttempts, meanScore(total))

		if verbose {
			fmt.Println()
			fmt.Printf("%-5s  %-56s  %8s  %6s\n", "ID", "Question", "Attempts", "Mean")
			fmt.Println(theme.Rule(82))
			for _, q := range qs {
				mean := "-"
				if q.MeanScore != nil {
					mean = fmt.Sprintf("%.2f", *q.MeanScore)
				}
				fmt.Printf("%-5d  %-56s  %8d  %6s\n", q.QuestionID, truncate(q.Text, 56), q.Attempts, mean)
			}
		}
		return nil
	},
}

func meanScore(s stats.Summary) string {
	if s.Scored == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", s.MeanScore)
}

func init() {
	statsCmd.Flags().StringSliceP("category", "c", nil, "Limit to category (repeatable)")
	statsCmd.Flags().BoolP("questions", "q", false, "List every question")
}
