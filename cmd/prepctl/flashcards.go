package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stemsi/exprep-backend/internal/model"
)

var flashcardLimit int

var flashcardsCmd = &cobra.Command{
	Use:     "flashcards",
	Aliases: []string{"review"},
	Short:   "Review due flashcards",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cards := prep.flashcards.Due(cmd.Context(), prep.learner.ID, flashcardLimit)
		if len(cards) == 0 {
			fmt.Fprintln(out, "✅ No cards due!")
			return nil
		}

		in := bufio.NewReader(cmd.InOrStdin())
		for i, card := range cards {
			printQuestion(out, i+1, len(cards), card.Question)
			fmt.Fprintln(out, "Press Enter to reveal the answer...")
			in.ReadString('\n')
			fmt.Fprintf(out, "💡 %s\n", card.Answer)

			rating, ok := askRating(cmd, in)
			if !ok {
				fmt.Fprintln(out, "⚠️ Skipped.")
				continue
			}
			entry, err := prep.flashcards.Rate(cmd.Context(), prep.learner.ID, card.Question.ID, rating)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Next review in %d day(s).\n", entry.IntervalDays)
		}

		fmt.Fprintln(out, "\n🎉 Review complete!")
		return nil
	},
}

var flashcardsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show deck statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := prep.flashcards.Stats(cmd.Context(), prep.learner.ID)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "📊 Deck")
		fmt.Fprintln(out, "-------")
		fmt.Fprintf(out, "Cards:     %d\n", s.Total)
		fmt.Fprintf(out, "Due:       %d\n", s.Due)
		fmt.Fprintf(out, "Scheduled: %d\n", s.Scheduled)
		fmt.Fprintf(out, "Mastered:  %d\n", s.Mastered)
		return nil
	},
}

var flashcardsResetCmd = &cobra.Command{
	Use:   "reset [question id]",
	Short: "Forget one card's schedule, or the whole deck",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		if err := prep.flashcards.Reset(cmd.Context(), prep.learner.ID, id); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Reset.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flashcardsCmd)
	flashcardsCmd.AddCommand(flashcardsStatsCmd, flashcardsResetCmd)
	flashcardsCmd.Flags().IntVarP(&flashcardLimit, "limit", "n", 20, "Maximum cards to review, 0 for all")
}

func askRating(cmd *cobra.Command, in *bufio.Reader) (model.Rating, bool) {
	fmt.Fprint(cmd.OutOrStdout(), "Rate recall [a]gain / [h]ard / [g]ood / [e]asy: ")
	line, _ := in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "again":
		return model.RatingAgain, true
	case "h", "hard":
		return model.RatingHard, true
	case "g", "good":
		return model.RatingGood, true
	case "e", "easy":
		return model.RatingEasy, true
	}
	return "", false
}
