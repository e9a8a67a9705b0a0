package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/stemsi/exprep-backend/internal/model"
)

var exportCustomOnly bool

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect, export and extend the question bank",
}

var bankStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count questions per domain and type",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := prep.banks.Summary(cmd.Context(), prep.learner.ID)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "📚 %s (%s)\n", s.Name, s.Version)
		fmt.Fprintf(out, "Total: %d (custom %d)\n\nBy domain\n", s.Total, s.Custom)
		for _, d := range model.Domains {
			fmt.Fprintf(out, "  %-45s %4d\n", d, s.ByDomain[d])
		}
		fmt.Fprintln(out, "\nBy type")
		types := make([]string, 0, len(s.ByType))
		for t := range s.ByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "  %-8s %4d\n", t, s.ByType[model.QuestionType(t)])
		}
		return nil
	},
}

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the active bank as JSON to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		questions := prep.banks.Active(cmd.Context(), prep.learner.ID).Questions
		if exportCustomOnly {
			questions = prep.banks.CustomQuestions(cmd.Context(), prep.learner.ID)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(questions)
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add authored questions from a JSON array (author mode must be on)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var drafts []model.QuestionDraft
		if err := json.Unmarshal(raw, &drafts); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		n, err := prep.banks.ImportCustom(cmd.Context(), prep.learner.ID, drafts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d question(s).\n", n)
		return nil
	},
}

var bankDeleteCmd = &cobra.Command{
	Use:   "delete QUESTION_ID",
	Short: "Remove an authored question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prep.banks.DeleteCustom(cmd.Context(), prep.learner.ID, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Deleted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bankCmd)
	bankCmd.AddCommand(bankStatsCmd, bankExportCmd, bankImportCmd, bankDeleteCmd)
	bankExportCmd.Flags().BoolVar(&exportCustomOnly, "custom", false, "Only authored questions")
}
