package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/stt"
)

var processCmd = &cobra.Command{
	Use:   "process <session>",
	Short: "Transcribe and grade the recorded answers of a session",
	Long: "Transcribe and grade every unprocessed answer of a session. Answers that\n" +
		"already have a transcript are skipped unless --reprocess is given.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		sttName, _ := cmd.Flags().GetString("stt")
		reprocess, _ := cmd.Flags().GetBool("reprocess")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		// The session's own backend wins over the default; --stt wins over both.
		res, err := a.Quiz.Results(ctx, sessionID)
		if err != nil {
			return err
		}
		if sttName == "" {
			sttName = res.Config.STTProvider
		}
		var provider stt.Provider
		if sttName != "" {
			if provider, err = stt.ParseProvider(sttName); err != nil {
				return err
			}
		}

		if reprocess {
			n, err := a.Quiz.Reprocess(ctx, sessionID)
			if err != nil {
				return err
			}
			fmt.Printf("Cleared %d answer(s).\n", n)
		}

		report, err := a.Pipeline.Process(ctx, sessionID, a.Settings(provider))
		if err != nil {
			return err
		}
		if report.Pending == 0 {
			fmt.Println("Nothing to process.")
			return nil
		}
		fmt.Printf("Processed %d answer(s) in %s: %d evaluated, %d failed.\n",
			report.Applied, report.Elapsed.Round(10*time.Millisecond), report.Applied-report.Failed, report.Failed)
		if report.WriteErrors > 0 {
			return fmt.Errorf("%d result(s) could not be saved", report.WriteErrors)
		}
		return showSession(cmd, a, sessionID)
	},
}

func init() {
	processCmd.Flags().String("stt", "", "Speech-to-text backend (deepgram, mistral, whisper)")
	processCmd.Flags().Bool("reprocess", false, "Clear existing results and evaluate every answer again")
}
