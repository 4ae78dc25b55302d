package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzer/internal/ui/theme"
)

var loadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Load question files (*.json) into the catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.DataDir
		if len(args) == 1 {
			dir = args[0]
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.Catalog.LoadDir(cmd.Context(), dir)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d file(s) from %s: %d question(s), %d new.\n",
			counts.Files, dir, counts.Seen, counts.Inserted)
		if len(counts.Skipped) > 0 {
			fmt.Println(theme.Failure.Render("Skipped: " + strings.Join(counts.Skipped, ", ")))
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List question categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		cats, err := s.Questions().Categories(cmd.Context())
		if err != nil {
			return err
		}
		if len(cats) == 0 {
			fmt.Println("No questions loaded. Run `quizzer load` first.")
			return nil
		}
		for _, c := range cats {
			fmt.Println(c)
		}
		return nil
	},
}
