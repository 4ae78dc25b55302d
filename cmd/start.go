package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/quiz"
	"github.com/abhisek/quizzer/internal/stt"
	"github.com/abhisek/quizzer/internal/ui/theme"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a quiz session",
	Long: "Start a quiz session. Questions are drawn from the chosen categories,\n" +
		"favoring ones answered less often or scored lower than average.",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, _ := cmd.Flags().GetStringSlice("category")
		count, _ := cmd.Flags().GetInt("count")
		am, _ := cmd.Flags().GetFloat64("attempt-multiplier")
		sm, _ := cmd.Flags().GetFloat64("score-multiplier")
		sttName, _ := cmd.Flags().GetString("stt")

		params := quiz.StartParams{
			Categories:        categories,
			Count:             count,
			AttemptMultiplier: am,
			ScoreMultiplier:   sm,
		}
		if sttName != "" {
			p, err := stt.ParseProvider(sttName)
			if err != nil {
				return err
			}
			params.STTProvider = string(p)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		started, err := a.Quiz.Start(cmd.Context(), params)
		if err != nil {
			return err
		}

		fmt.Println(theme.Title.Render("Session " + started.Session.ID))
		fmt.Println()
		for i, q := range started.Questions {
			fmt.Printf("%d. %s %s\n", i+1, q.Text,
				theme.Hint.Render("["+q.Category+", id "+strconv.Itoa(q.ID)+"]"))
		}
		fmt.Println()
		fmt.Println(theme.Hint.Render("Record each answer, then run: quizzer answer " +
			started.Session.ID + " <question-id> <audio-file>"))
		return nil
	},
}

var answerCmd = &cobra.Command{
	Use:   "answer <session> <question-id> <audio-file>",
	Short: "Attach a recorded answer to a session",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		qid, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid question id %q: %w", args[1], err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ans, err := a.Quiz.SubmitAnswer(cmd.Context(), args[0], qid, args[2])
		if err != nil {
			return err
		}
		fmt.Printf("Answer %d saved to %s\n", ans.ID, ans.AudioPath)
		return nil
	},
}

func init() {
	startCmd.Flags().StringSliceP("category", "c", nil, "Category to draw from (repeatable)")
	startCmd.Flags().IntP("count", "n", quiz.DefaultCount, "Number of questions")
	startCmd.Flags().Float64("attempt-multiplier", quiz.DefaultAttemptMultiplier, "Weight toward less-attempted questions (1 = off)")
	startCmd.Flags().Float64("score-multiplier", quiz.DefaultScoreMultiplier, "Weight toward lower-scored questions (1 = off)")
	startCmd.Flags().String("stt", "", "Speech-to-text backend to record in the session (deepgram, mistral, whisper)")
	_ = startCmd.MarkFlagRequired("category")
}
