package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stemsi/exprep-backend/internal/model"
)

// parseAnswer reads a typed answer from one line of input. Option numbers are
// 1-based; a single letter also picks an mcq option. An empty line is "no
// answer" and returns nil.
func parseAnswer(q model.QuestionForLearner, input string) (model.Answer, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	switch q.Type {
	case model.QuestionTypeMCQ:
		idx, err := optionIndex(input, len(q.Options))
		if err != nil {
			return nil, err
		}
		return model.MCQAnswer{Value: &idx}, nil

	case model.QuestionTypeMSQ:
		picks, err := optionList(input, len(q.Options))
		if err != nil {
			return nil, err
		}
		return model.MSQAnswer{Value: picks}, nil

	case model.QuestionTypeNumeric:
		v, err := strconv.ParseFloat(strings.NewReplacer(",", "", "$", "").Replace(input), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", input)
		}
		return model.NumericAnswer{Value: &v}, nil

	case model.QuestionTypeFill:
		return model.FillAnswer{Value: input}, nil

	case model.QuestionTypeOrder:
		order, err := optionList(input, len(q.Options))
		if err != nil {
			return nil, err
		}
		if len(order) != len(q.Options) {
			return nil, fmt.Errorf("list all %d steps", len(q.Options))
		}
		return model.OrderAnswer{Value: order}, nil

	case model.QuestionTypeMatch:
		matches, err := optionList(input, len(q.Options))
		if err != nil {
			return nil, err
		}
		if len(matches) != len(q.Rows) {
			return nil, fmt.Errorf("give one option for each of the %d rows", len(q.Rows))
		}
		return model.MatchAnswer{Value: matches}, nil
	}
	return nil, fmt.Errorf("unsupported question type %q", q.Type)
}

func optionIndex(s string, n int) (int, error) {
	if len(s) == 1 {
		if c := s[0] | 0x20; c >= 'a' && c < 'a'+byte(n) {
			return int(c - 'a'), nil
		}
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("pick an option between 1 and %d", n)
	}
	return i - 1, nil
}

func optionList(s string, n int) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := optionIndex(f, n)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// optionLabel is the letter shown next to option i.
func optionLabel(i int) string {
	return string(rune('A' + i))
}
