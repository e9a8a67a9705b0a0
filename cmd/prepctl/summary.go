package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"dashboard"},
	Short:   "Show readiness, streak, weak areas and analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		d := prep.progress.Dashboard(ctx, prep.learner.ID)
		a := prep.progress.Analytics(ctx, prep.learner.ID)

		fmt.Fprintln(out, "📊 Summary")
		fmt.Fprintln(out, "----------")
		fmt.Fprintf(out, "Bank:        %s (%s, %d questions)\n", d.BankName, d.BankVersion, d.BankSize)
		fmt.Fprintf(out, "Attempts:    %d\n", d.Attempts)
		fmt.Fprintf(out, "Last score:  %d%%\n", d.LastScore)
		fmt.Fprintf(out, "Best score:  %d%%\n", d.BestScore)
		fmt.Fprintf(out, "Readiness:   %d%% (composite %d%%)\n", d.Readiness, a.ReadinessComposite)
		fmt.Fprintf(out, "Streak:      %d\n", d.Streak)
		fmt.Fprintf(out, "Cards due:   %d of %d scheduled\n", d.Deck.Due, d.Deck.Scheduled)

		if len(a.DomainAccuracy) > 0 {
			fmt.Fprintln(out, "\nDomain accuracy")
			for _, da := range a.DomainAccuracy {
				fmt.Fprintf(out, "  %-45s %3d%%\n", da.Domain, da.Accuracy)
			}
		}
		if len(a.DifficultyAccuracy) > 0 {
			fmt.Fprintln(out, "\nDifficulty accuracy")
			for _, da := range a.DifficultyAccuracy {
				fmt.Fprintf(out, "  %-10s %3d%%\n", da.Difficulty, da.Accuracy)
			}
		}
		if len(d.WeakAreas) > 0 {
			fmt.Fprintln(out, "\nWeak areas")
			for _, w := range d.WeakAreas {
				fmt.Fprintf(out, "  • %s\n", w)
			}
		}
		if len(a.RollingAverage) > 0 {
			fmt.Fprintf(out, "\nTrend (3-attempt average): %v\n", a.RollingAverage)
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		records := prep.progress.History(cmd.Context(), prep.learner.ID, historyLimit)
		if len(records) == 0 {
			fmt.Fprintln(out, "No sessions yet.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(out, "%s  %-8s %3d%%  %3d min\n", r.Date.Local().Format("2006-01-02 15:04"), r.Mode, r.Score, r.DurationMinutes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of sessions, 0 for all")
}
