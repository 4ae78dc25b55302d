package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all questions, sessions, answers and recordings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to reset without --yes")
		}

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Store.Questions().DeleteAll(cmd.Context()); err != nil {
			return err
		}
		uploads := cfg.UploadDirFor(dbPath)
		if err := os.RemoveAll(uploads); err != nil {
			return fmt.Errorf("remove recordings: %w", err)
		}
		log.Info().Str("db", dbPath).Str("uploads", uploads).Msg("data reset")
		fmt.Println("All quiz data deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
