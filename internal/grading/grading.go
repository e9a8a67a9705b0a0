// Package grading decides correctness for every question type and renders answers
// for review. All functions are pure; a type mismatch is simply incorrect.
package grading

import (
	"slices"
	"strconv"
	"strings"

	"github.com/stemsi/exprep-backend/internal/model"
)

// NoAnswer is rendered for empty or mismatched answers.
const NoAnswer = "No answer"

const (
	listSeparator  = ", "
	orderSeparator = " → "
	pairSeparator  = "; "
)

// DefaultAnswer returns the empty answer for the question's type. Order and match
// default to the identity arrangement.
func DefaultAnswer(q model.Question) model.Answer {
	switch b := q.Body.(type) {
	case model.MCQ:
		return model.MCQAnswer{}
	case model.MSQ:
		return model.MSQAnswer{Value: []int{}}
	case model.Numeric:
		return model.NumericAnswer{}
	case model.Fill:
		return model.FillAnswer{}
	case model.Order:
		return model.OrderAnswer{Value: identity(len(b.CorrectOrder))}
	case model.Match:
		return model.MatchAnswer{Value: identity(len(b.Rows))}
	default:
		return model.MCQAnswer{}
	}
}

// IsCorrect grades a single answer.
func IsCorrect(q model.Question, answer model.Answer) bool {
	if answer == nil || answer.Type() != q.Type() {
		return false
	}

	switch b := q.Body.(type) {
	case model.MCQ:
		a := answer.(model.MCQAnswer)
		return a.Value != nil && *a.Value == b.CorrectIndex
	case model.MSQ:
		a := answer.(model.MSQAnswer)
		if len(a.Value) != len(b.CorrectIndices) {
			return false
		}
		for _, v := range a.Value {
			if !slices.Contains(b.CorrectIndices, v) {
				return false
			}
		}
		return true
	case model.Numeric:
		a := answer.(model.NumericAnswer)
		if a.Value == nil {
			return false
		}
		diff := *a.Value - b.CorrectValue
		if diff < 0 {
			diff = -diff
		}
		return diff <= b.Tolerance
	case model.Fill:
		a := answer.(model.FillAnswer)
		return normalizeText(a.Value) == normalizeText(b.CorrectAnswer)
	case model.Order:
		return slices.Equal(answer.(model.OrderAnswer).Value, b.CorrectOrder)
	case model.Match:
		return slices.Equal(answer.(model.MatchAnswer).Value, b.CorrectMatches)
	default:
		return false
	}
}

// FormatAnswer renders the learner's answer using option text.
func FormatAnswer(q model.Question, answer model.Answer) string {
	if answer == nil || answer.Type() != q.Type() {
		return NoAnswer
	}

	switch b := q.Body.(type) {
	case model.MCQ:
		a := answer.(model.MCQAnswer)
		if a.Value == nil {
			return NoAnswer
		}
		return optionText(b.Options, *a.Value)
	case model.MSQ:
		return joinOptions(b.Options, answer.(model.MSQAnswer).Value, listSeparator)
	case model.Numeric:
		a := answer.(model.NumericAnswer)
		if a.Value == nil {
			return NoAnswer
		}
		return formatNumber(*a.Value)
	case model.Fill:
		a := answer.(model.FillAnswer)
		if strings.TrimSpace(a.Value) == "" {
			return NoAnswer
		}
		return a.Value
	case model.Order:
		return joinOptions(b.Options, answer.(model.OrderAnswer).Value, orderSeparator)
	case model.Match:
		return joinPairs(b.Rows, b.Options, answer.(model.MatchAnswer).Value)
	default:
		return NoAnswer
	}
}

// CorrectAnswerLabel renders the answer key.
func CorrectAnswerLabel(q model.Question) string {
	switch b := q.Body.(type) {
	case model.MCQ:
		return optionText(b.Options, b.CorrectIndex)
	case model.MSQ:
		return joinOptions(b.Options, b.CorrectIndices, listSeparator)
	case model.Numeric:
		return strings.TrimSpace(formatNumber(b.CorrectValue) + " " + b.UnitHint)
	case model.Fill:
		return b.CorrectAnswer
	case model.Order:
		return joinOptions(b.Options, b.CorrectOrder, orderSeparator)
	case model.Match:
		return joinPairs(b.Rows, b.Options, b.CorrectMatches)
	default:
		return ""
	}
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// optionText renders "?" for an index outside the option list.
func optionText(options []string, idx int) string {
	if idx < 0 || idx >= len(options) {
		return "?"
	}
	return options[idx]
}

func joinOptions(options []string, indices []int, sep string) string {
	if len(indices) == 0 {
		return NoAnswer
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = optionText(options, idx)
	}
	return strings.Join(parts, sep)
}

func joinPairs(rows, options []string, matches []int) string {
	if len(matches) == 0 {
		return NoAnswer
	}
	parts := make([]string, len(matches))
	for row, idx := range matches {
		parts[row] = optionText(rows, row) + orderSeparator + optionText(options, idx)
	}
	return strings.Join(parts, pairSeparator)
}
