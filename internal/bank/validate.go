package bank

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/stemsi/exprep-backend/internal/model"
)

// ValidationError lists every problem found in an authored question.
type ValidationError struct {
	QuestionID string
	Problems   []string
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return "questions are invalid: " + strings.Join(e.Problems, " ")
	}
	return fmt.Sprintf("question %q is invalid: %s", e.QuestionID, strings.Join(e.Problems, " "))
}

var fieldLabels = map[string]string{
	"ID":          "ID",
	"Domain":      "Domain",
	"Difficulty":  "Difficulty",
	"Type":        "Question type",
	"Prompt":      "Prompt",
	"Explanation": "Explanation",
	"Tolerance":   "Numeric tolerance",
}

var draftValidator = sync.OnceValue(func() *govalidator.Validate {
	return govalidator.New(govalidator.WithRequiredStructEnabled())
})

// Validate returns the problems that keep d from being saved. An empty result means
// the question is well-formed enough to grade. Index-bearing fields must reference
// valid option positions.
func Validate(d model.QuestionDraft) []string {
	problems := baseProblems(d)

	switch d.Type {
	case model.QuestionTypeMCQ:
		if len(d.Options) == 0 {
			problems = append(problems, "MCQ options are required.")
		}
		if d.CorrectIndex == nil {
			problems = append(problems, "MCQ correctIndex is required.")
		} else if len(d.Options) > 0 && !inRange(*d.CorrectIndex, len(d.Options)) {
			problems = append(problems, "MCQ correctIndex must reference an option.")
		}
	case model.QuestionTypeMSQ:
		if len(d.Options) == 0 {
			problems = append(problems, "MSQ options are required.")
		}
		if len(d.CorrectIndices) == 0 {
			problems = append(problems, "MSQ correctIndices are required.")
		} else if len(d.Options) > 0 && !allInRange(d.CorrectIndices, len(d.Options)) {
			problems = append(problems, "MSQ correctIndices must reference options.")
		} else if hasDuplicates(d.CorrectIndices) {
			problems = append(problems, "MSQ correctIndices must not repeat.")
		}
	case model.QuestionTypeNumeric:
		if d.CorrectValue == nil {
			problems = append(problems, "Numeric correctValue is required.")
		}
		if d.Tolerance == nil {
			problems = append(problems, "Numeric tolerance is required.")
		}
	case model.QuestionTypeFill:
		if strings.TrimSpace(d.CorrectAnswer) == "" {
			problems = append(problems, "Fill correctAnswer is required.")
		}
	case model.QuestionTypeOrder:
		if len(d.Options) == 0 {
			problems = append(problems, "Order options are required.")
		}
		if len(d.CorrectOrder) == 0 {
			problems = append(problems, "Order correctOrder is required.")
		} else if len(d.Options) > 0 && !isPermutation(d.CorrectOrder, len(d.Options)) {
			problems = append(problems, "Order correctOrder must list every option exactly once.")
		}
	case model.QuestionTypeMatch:
		if len(d.Rows) == 0 {
			problems = append(problems, "Match rows are required.")
		}
		if len(d.Options) == 0 {
			problems = append(problems, "Match options are required.")
		}
		if len(d.CorrectMatches) == 0 {
			problems = append(problems, "Match correctMatches are required.")
		} else {
			if len(d.Rows) > 0 && len(d.CorrectMatches) != len(d.Rows) {
				problems = append(problems, "Match correctMatches must have one entry per row.")
			}
			if len(d.Options) > 0 && !allInRange(d.CorrectMatches, len(d.Options)) {
				problems = append(problems, "Match correctMatches must reference options.")
			}
		}
	}

	return problems
}

// ValidateQuestion validates an already built question.
func ValidateQuestion(q model.Question) []string {
	return Validate(q.Draft())
}

// Check wraps Validate into an error, or returns nil when d is valid.
func Check(d model.QuestionDraft) error {
	if problems := Validate(d); len(problems) > 0 {
		return &ValidationError{QuestionID: d.ID, Problems: problems}
	}
	return nil
}

func baseProblems(d model.QuestionDraft) []string {
	problems := []string{}

	err := draftValidator().Struct(d)
	if err == nil {
		return problems
	}

	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return append(problems, err.Error())
	}
	for _, fe := range ve {
		label := fieldLabels[fe.StructField()]
		if label == "" {
			label = fe.StructField()
		}
		switch fe.Tag() {
		case "required":
			problems = append(problems, label+" is required.")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s %q is not recognized.", label, fe.Value()))
		case "gte":
			problems = append(problems, label+" must not be negative.")
		default:
			problems = append(problems, label+" is invalid.")
		}
	}
	return problems
}

func inRange(idx, n int) bool { return idx >= 0 && idx < n }

func allInRange(indices []int, n int) bool {
	for _, idx := range indices {
		if !inRange(idx, n) {
			return false
		}
	}
	return true
}

func hasDuplicates(indices []int) bool {
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			return true
		}
		seen[idx] = struct{}{}
	}
	return false
}

func isPermutation(indices []int, n int) bool {
	return len(indices) == n && allInRange(indices, n) && !hasDuplicates(indices)
}
