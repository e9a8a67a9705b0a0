package main

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stemsi/exprep-backend/internal/model"
)

var (
	examSeed     string
	saveStudySet bool

	practiceCount        int
	practiceMode         string
	practiceDomains      []string
	practiceTypes        []string
	practiceDifficulty   []string
	practiceRepeatMissed bool
)

var examCmd = &cobra.Command{
	Use:   "exam",
	Short: "Take a 30-question timed exam",
	RunE: func(cmd *cobra.Command, args []string) error {
		paper, err := prep.sessions.StartExam(cmd.Context(), prep.learner, model.StartExamRequest{Seed: examSeed})
		if err != nil {
			return err
		}
		return runSession(cmd, paper)
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice by topic, weakest domains or saved study set",
	RunE: func(cmd *cobra.Command, args []string) error {
		if practiceCount < 1 || practiceCount > 200 {
			return fmt.Errorf("count must be between 1 and 200")
		}
		req := model.StartPracticeRequest{
			Mode:         model.PracticeMode(practiceMode),
			Count:        practiceCount,
			RepeatMissed: practiceRepeatMissed,
		}
		for _, d := range practiceDomains {
			domain, err := matchDomain(d)
			if err != nil {
				return err
			}
			req.Domains = append(req.Domains, domain)
		}
		for _, t := range practiceTypes {
			qt := model.QuestionType(strings.ToLower(t))
			if !slices.Contains(model.QuestionTypes, qt) {
				return fmt.Errorf("unknown question type %q", t)
			}
			req.Types = append(req.Types, qt)
		}
		for _, d := range practiceDifficulty {
			i := slices.IndexFunc(model.Difficulties, func(x model.Difficulty) bool { return strings.EqualFold(string(x), d) })
			if i < 0 {
				return fmt.Errorf("unknown difficulty %q", d)
			}
			req.Difficulty = append(req.Difficulty, model.Difficulties[i])
		}

		paper, err := prep.sessions.StartPractice(cmd.Context(), prep.learner, req)
		if err != nil {
			return err
		}
		return runSession(cmd, paper)
	},
}

func init() {
	rootCmd.AddCommand(examCmd, practiceCmd)

	examCmd.Flags().StringVar(&examSeed, "seed", "", "Seed for a reproducible paper")
	for _, c := range []*cobra.Command{examCmd, practiceCmd} {
		c.Flags().BoolVar(&saveStudySet, "save-study-set", false, "Save missed and flagged questions as the study set")
	}

	practiceCmd.Flags().IntVarP(&practiceCount, "count", "n", 10, "Number of questions")
	practiceCmd.Flags().StringVar(&practiceMode, "mode", string(model.PracticeModeTopic), "topic, weakest or study_set")
	practiceCmd.Flags().StringSliceVar(&practiceDomains, "domain", nil, "Domain filter (any unique substring, repeatable)")
	practiceCmd.Flags().StringSliceVar(&practiceTypes, "type", nil, "Type filter: mcq, msq, numeric, fill, order, match")
	practiceCmd.Flags().StringSliceVar(&practiceDifficulty, "difficulty", nil, "Difficulty filter: easy, medium, hard")
	practiceCmd.Flags().BoolVar(&practiceRepeatMissed, "repeat-missed", false, "Only questions missed before")
}

// matchDomain resolves a case-insensitive substring to exactly one domain.
func matchDomain(s string) (model.Domain, error) {
	var found []model.Domain
	for _, d := range model.Domains {
		if strings.Contains(strings.ToLower(string(d)), strings.ToLower(s)) {
			found = append(found, d)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("domain %q matches %d domains", s, len(found))
	}
	return found[0], nil
}

func runSession(cmd *cobra.Command, paper *model.SessionPaper) error {
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintf(out, "📝 %s session, %d questions", paper.Mode, len(paper.Questions))
	if paper.TimerMins > 0 {
		fmt.Fprintf(out, ", %d minutes", paper.TimerMins)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Blank line skips. Type \"flag\" to mark a question for the study set.")

	answers := make(map[string]model.TaggedAnswer, len(paper.Questions))
	var flagged []string
	deadline := paper.StartedAt.Add(time.Duration(paper.TimerMins) * time.Minute)

	for i, q := range paper.Questions {
		printQuestion(out, i+1, len(paper.Questions), q)
		for {
			fmt.Fprint(out, "> ")
			line, err := in.ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			if strings.EqualFold(strings.TrimSpace(line), "flag") {
				flagged = append(flagged, q.ID)
				fmt.Fprintln(out, "🚩 Flagged")
				continue
			}
			a, perr := parseAnswer(q, line)
			if perr != nil && err == nil {
				fmt.Fprintln(out, "⚠️", perr)
				continue
			}
			if a != nil {
				answers[q.ID] = model.TaggedAnswer{Answer: a}
			}
			break
		}
	}

	if paper.TimerMins > 0 && time.Now().After(deadline) {
		fmt.Fprintln(out, "⏰ Time is up; submitting what you have.")
	}

	review, err := prep.sessions.Submit(cmd.Context(), prep.learner, paper.SessionID, model.SubmitSessionRequest{
		Answers:      answers,
		Flagged:      flagged,
		SaveStudySet: saveStudySet,
	})
	if err != nil {
		return err
	}
	printReview(out, review)
	return nil
}

func printQuestion(out io.Writer, n, total int, q model.QuestionForLearner) {
	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintf(out, "[%d/%d] %s · %s · %s\n", n, total, q.Domain, q.Difficulty, q.Type)
	fmt.Fprintln(out, "========================================")
	fmt.Fprintln(out, q.Prompt)

	switch q.Type {
	case model.QuestionTypeMatch:
		for i, r := range q.Rows {
			fmt.Fprintf(out, "  row %d: %s\n", i+1, r)
		}
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, o)
		}
		fmt.Fprintln(out, "Enter the option number for each row, in row order.")
	default:
		for i, o := range q.Options {
			fmt.Fprintf(out, "  %s) %s\n", optionLabel(i), o)
		}
		switch q.Type {
		case model.QuestionTypeMSQ:
			fmt.Fprintln(out, "Select all that apply, e.g. 1,3.")
		case model.QuestionTypeOrder:
			fmt.Fprintln(out, "Enter every step number in the right order.")
		case model.QuestionTypeNumeric:
			if q.UnitHint != "" {
				fmt.Fprintf(out, "(%s)\n", q.UnitHint)
			}
		}
	}
}

func printReview(out io.Writer, review *model.SessionReview) {
	fmt.Fprintln(out, "\n========================================")
	verdict := "❌ Below pass mark"
	if review.Passed {
		verdict = "✅ Passed"
	}
	fmt.Fprintf(out, "Score: %d%%  %s  (%d min)\n", review.Record.Score, verdict, review.Record.DurationMinutes)
	for _, d := range model.Domains {
		if s, ok := review.Record.DomainBreakdown[d]; ok {
			fmt.Fprintf(out, "  %-45s %d/%d\n", d, s.Correct, s.Total)
		}
	}

	for _, item := range review.Items {
		if item.Correct && !item.Flagged {
			continue
		}
		mark := "✗"
		if item.Correct {
			mark = "✓"
		}
		fmt.Fprintf(out, "\n%s %s\n", mark, item.Prompt)
		fmt.Fprintf(out, "  Your answer: %s\n  Correct:     %s\n  %s\n", item.Given, item.Expected, item.Explanation)
	}
}
