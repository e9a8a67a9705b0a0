package main

import (
	"testing"

	"github.com/stemsi/exprep-backend/internal/model"
)

func TestParseAnswer(t *testing.T) {
	mcq := model.QuestionForLearner{Type: model.QuestionTypeMCQ, Options: []string{"a", "b", "c"}}
	msq := model.QuestionForLearner{Type: model.QuestionTypeMSQ, Options: []string{"a", "b", "c"}}
	num := model.QuestionForLearner{Type: model.QuestionTypeNumeric}
	order := model.QuestionForLearner{Type: model.QuestionTypeOrder, Options: []string{"x", "y", "z"}}
	match := model.QuestionForLearner{Type: model.QuestionTypeMatch, Rows: []string{"r1", "r2"}, Options: []string{"o1", "o2", "o3"}}

	tests := []struct {
		name    string
		q       model.QuestionForLearner
		input   string
		check   func(model.Answer) bool
		wantErr bool
	}{
		{"blank is unanswered", mcq, "  ", func(a model.Answer) bool { return a == nil }, false},
		{"mcq by number", mcq, "2", func(a model.Answer) bool { return *a.(model.MCQAnswer).Value == 1 }, false},
		{"mcq by letter", mcq, "C", func(a model.Answer) bool { return *a.(model.MCQAnswer).Value == 2 }, false},
		{"mcq out of range", mcq, "4", nil, true},
		{"msq list", msq, "1, 3", func(a model.Answer) bool {
			v := a.(model.MSQAnswer).Value
			return len(v) == 2 && v[0] == 0 && v[1] == 2
		}, false},
		{"numeric with symbols", num, "$1,250.50", func(a model.Answer) bool { return *a.(model.NumericAnswer).Value == 1250.5 }, false},
		{"numeric garbage", num, "lots", nil, true},
		{"order must be complete", order, "1 2", nil, true},
		{"order", order, "3 1 2", func(a model.Answer) bool {
			v := a.(model.OrderAnswer).Value
			return v[0] == 2 && v[1] == 0 && v[2] == 1
		}, false},
		{"match per row", match, "3,1", func(a model.Answer) bool {
			v := a.(model.MatchAnswer).Value
			return len(v) == 2 && v[0] == 2 && v[1] == 0
		}, false},
		{"match wrong length", match, "1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswer(tt.q, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got %#v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(got) {
				t.Errorf("unexpected answer %#v", got)
			}
		})
	}
}

func TestParseSettings(t *testing.T) {
	req, err := parseSettings([]string{"authorMode=true", "passThreshold=75"})
	if err != nil {
		t.Fatal(err)
	}
	if req.AuthorMode == nil || !*req.AuthorMode || req.PassThreshold == nil || *req.PassThreshold != 75 || req.FunMode != nil {
		t.Errorf("req = %+v", req)
	}

	for _, bad := range [][]string{{"authorMode"}, {"colour=1"}, {"passThreshold=high"}, {"fontScale=3"}} {
		if _, err := parseSettings(bad); err == nil {
			t.Errorf("parseSettings(%v) succeeded", bad)
		}
	}
}

func TestMatchDomain(t *testing.T) {
	if d, err := matchDomain("tax"); err != nil || d != model.DomainTax {
		t.Errorf("tax = %q, %v", d, err)
	}
	if _, err := matchDomain("and"); err == nil {
		t.Error("ambiguous substring accepted")
	}
}
