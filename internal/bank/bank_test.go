package bank_test

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/model"
)

func TestCatalogShape(t *testing.T) {
	b, err := bank.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if b.Version != model.LocalBankVersion {
		t.Fatalf("version = %q", b.Version)
	}

	stats := b.Stats()
	if stats.Total != 130 {
		t.Fatalf("total = %d, want 130", stats.Total)
	}
	wantTypes := map[model.QuestionType]int{
		model.QuestionTypeMCQ:     26,
		model.QuestionTypeMSQ:     4,
		model.QuestionTypeNumeric: 77,
		model.QuestionTypeFill:    9,
		model.QuestionTypeOrder:   7,
		model.QuestionTypeMatch:   7,
	}
	for typ, want := range wantTypes {
		if got := stats.ByType[typ]; got != want {
			t.Errorf("%s count = %d, want %d", typ, got, want)
		}
	}

	quotas := []int{7, 6, 6, 5, 6}
	for i, d := range model.Domains {
		if stats.ByDomain[d] < quotas[i] {
			t.Errorf("domain %q has %d questions, below exam quota %d", d, stats.ByDomain[d], quotas[i])
		}
	}
}

func TestCatalogQuestionsAreValidAndUnique(t *testing.T) {
	b := bank.MustCatalog()
	seen := map[string]bool{}
	for _, q := range b.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate id %q", q.ID)
		}
		seen[q.ID] = true
		if problems := bank.ValidateQuestion(q); len(problems) > 0 {
			t.Errorf("%s: %v", q.ID, problems)
		}
	}
}

func TestGeneratedCalculations(t *testing.T) {
	idx := bank.MustCatalog().Index()

	tests := []struct {
		id        string
		value     float64
		tolerance float64
	}{
		// rate 19, hours 43: 40*19 + 3*19*1.5
		{"calc-ot-1", 845.5, 0.5},
		// gross 1237, pretax 70, post 50: 1167*0.82 - 50
		{"calc-net-1", 906.94, 0.5},
		// 972 * 0.0765
		{"calc-fica-1", 74.36, 0.4},
		// 52400/260*8
		{"calc-pro-1", 1612.31, 0.5},
		// 1.5 * 82
		{"calc-retro-1", 123, 0.25},
	}
	for _, tt := range tests {
		q, ok := idx[tt.id]
		if !ok {
			t.Fatalf("%s missing from catalog", tt.id)
		}
		num, ok := q.Body.(model.Numeric)
		if !ok {
			t.Fatalf("%s body = %T", tt.id, q.Body)
		}
		if num.CorrectValue != tt.value || num.Tolerance != tt.tolerance {
			t.Errorf("%s = %v ± %v, want %v ± %v", tt.id, num.CorrectValue, num.Tolerance, tt.value, tt.tolerance)
		}
	}

	if !strings.Contains(idx["calc-retro-1"].Prompt, "$21/hr to $22.5/hr") {
		t.Errorf("retro prompt = %q", idx["calc-retro-1"].Prompt)
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	a := bank.MustCatalog()
	a.Questions[0] = model.Question{ID: "mutated"}
	if bank.MustCatalog().Questions[0].ID == "mutated" {
		t.Fatal("catalog shared its backing slice")
	}
}

func TestWithCustom(t *testing.T) {
	base := bank.Bank{Name: "b", Version: "1", Questions: []model.Question{
		{ID: "a", Body: model.Fill{CorrectAnswer: "x"}},
		{ID: "b", Body: model.Fill{CorrectAnswer: "y"}},
	}}
	merged := base.WithCustom([]model.Question{
		{ID: "c", Body: model.Fill{CorrectAnswer: "z"}},
		{ID: "b", Body: model.Fill{CorrectAnswer: "override"}},
	})

	var ids []string
	for _, q := range merged.Questions {
		ids = append(ids, q.ID)
	}
	if !slices.Equal(ids, []string{"c", "b", "a"}) {
		t.Fatalf("ids = %v", ids)
	}
	if merged.Questions[1].Body.(model.Fill).CorrectAnswer != "override" {
		t.Fatal("custom question did not replace bank question")
	}
	if base.Len() != 2 {
		t.Fatal("base bank modified")
	}
}

func TestQuestionJSONRoundTripUsesFlatFields(t *testing.T) {
	q := bank.MustCatalog().Index()["match-extra-0"]
	data, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"type":"match"`, `"rows":`, `"correctMatches":[2,0,1]`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("encoded question missing %s: %s", field, data)
		}
	}

	var back model.Question
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Type() != model.QuestionTypeMatch || back.ID != q.ID {
		t.Fatalf("decoded %+v", back)
	}
}
