package bank

import (
	"fmt"
	"math"
	"strconv"

	"github.com/stemsi/exprep-backend/internal/model"
)

type calculationTemplate struct {
	count    int
	generate func(id int) model.Question
}

var calculationTemplates = []calculationTemplate{
	{count: 25, generate: overtimePremium},
	{count: 18, generate: netPay},
	{count: 12, generate: ficaWithholding},
	{count: 12, generate: proratedSalary},
	{count: 10, generate: retroPay},
}

func generateQuestions() []model.Question {
	var out []model.Question
	for _, tpl := range calculationTemplates {
		for i := 1; i <= tpl.count; i++ {
			out = append(out, tpl.generate(i))
		}
	}
	out = append(out, orderExtras(6)...)
	out = append(out, matchExtras(6)...)
	out = append(out, fillExtras(8)...)
	return out
}

func overtimePremium(id int) model.Question {
	rate := 18 + id%7
	hours := 40 + id%6 + 2
	overtime := hours - 40
	total := float64(40*rate) + float64(overtime*rate)*1.5

	return model.Question{
		ID:          fmt.Sprintf("calc-ot-%d", id),
		Domain:      model.DomainProcedures,
		Difficulty:  cycle(id, model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard),
		Prompt:      fmt.Sprintf("An employee earns $%d/hour and worked %d hours in a week. What is the gross pay using time-and-a-half overtime?", rate, hours),
		Explanation: fmt.Sprintf("Calculate regular pay (40 × $%d) plus overtime (%d × $%d × 1.5).", rate, overtime, rate),
		Body:        model.Numeric{CorrectValue: round2(total), Tolerance: 0.5, UnitHint: "USD"},
	}
}

func netPay(id int) model.Question {
	gross := 1200 + id*37
	pretax := 60 + (id%5)*10
	postTax := 45 + (id%4)*5
	taxable := float64(gross - pretax)
	net := taxable - taxable*0.18 - float64(postTax)

	return model.Question{
		ID:          fmt.Sprintf("calc-net-%d", id),
		Domain:      model.DomainProcedures,
		Difficulty:  cycle(id, model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard, model.DifficultyHard),
		Prompt:      fmt.Sprintf("An employee earns $%d gross. Pre-tax deductions total $%d. Taxes are 18%% of taxable wages. There is also a $%d post-tax deduction. What is net pay?", gross, pretax, postTax),
		Explanation: fmt.Sprintf("Taxable wages = $%d - $%d. Taxes are 18%% of taxable wages; subtract taxes and post-tax deduction.", gross, pretax),
		Body:        model.Numeric{CorrectValue: round2(net), Tolerance: 0.5, UnitHint: "USD"},
	}
}

func ficaWithholding(id int) model.Question {
	wages := 950 + id*22

	return model.Question{
		ID:          fmt.Sprintf("calc-fica-%d", id),
		Domain:      model.DomainTax,
		Difficulty:  cycle(id, model.DifficultyEasy, model.DifficultyMedium, model.DifficultyMedium),
		Prompt:      fmt.Sprintf("An employee has taxable wages of $%d. Calculate the combined employee FICA withholding at 7.65%%.", wages),
		Explanation: "Multiply taxable wages by 0.0765 to get the FICA withholding.",
		Body:        model.Numeric{CorrectValue: round2(float64(wages) * 0.0765), Tolerance: 0.4, UnitHint: "USD"},
	}
}

func proratedSalary(id int) model.Question {
	annual := 52000 + id*400
	days := 7 + id%6
	pay := float64(annual) / 260 * float64(days)

	return model.Question{
		ID:          fmt.Sprintf("calc-pro-%d", id),
		Domain:      model.DomainProcedures,
		Difficulty:  cycle(id, model.DifficultyMedium, model.DifficultyHard, model.DifficultyHard),
		Prompt:      fmt.Sprintf("A salaried employee earns $%d annually based on 260 workdays. They start mid-period and work %d of 10 days. What is the prorated gross pay?", annual, days),
		Explanation: fmt.Sprintf("Daily rate = annual ÷ 260. Multiply by %d days worked.", days),
		Body:        model.Numeric{CorrectValue: round2(pay), Tolerance: 0.5, UnitHint: "USD"},
	}
}

func retroPay(id int) model.Question {
	oldRate := float64(20 + id%4)
	newRate := oldRate + 1.5
	hours := 80 + (id%5)*2

	return model.Question{
		ID:         fmt.Sprintf("calc-retro-%d", id),
		Domain:     model.DomainProcedures,
		Difficulty: model.DifficultyMedium,
		Prompt: fmt.Sprintf("A retroactive raise increased pay from $%s/hr to $%s/hr for %d hours already paid. What is the retro pay owed?",
			strconv.FormatFloat(oldRate, 'f', -1, 64), strconv.FormatFloat(newRate, 'f', -1, 64), hours),
		Explanation: "Retro pay = (new rate - old rate) × hours.",
		Body:        model.Numeric{CorrectValue: round2((newRate - oldRate) * float64(hours)), Tolerance: 0.25, UnitHint: "USD"},
	}
}

func orderExtras(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:          fmt.Sprintf("order-extra-%d", i),
			Domain:      model.Domains[i%len(model.Domains)],
			Difficulty:  cycle(i, model.DifficultyEasy, model.DifficultyMedium),
			Prompt:      "Order the steps for resolving a payroll discrepancy.",
			Explanation: "Start by acknowledging, then review, correct, communicate, and document.",
			Body: model.Order{
				Options:      []string{"Acknowledge request", "Review records", "Determine correction", "Communicate outcome", "Document resolution"},
				CorrectOrder: []int{0, 1, 2, 3, 4},
			},
		}
	}
	return out
}

func matchExtras(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:          fmt.Sprintf("match-extra-%d", i),
			Domain:      model.Domains[i%len(model.Domains)],
			Difficulty:  model.DifficultyMedium,
			Prompt:      "Match the report to its payroll purpose.",
			Explanation: "Register summarizes gross-to-net, liability report shows taxes, deduction report lists deductions.",
			Body: model.Match{
				Rows:           []string{"Payroll register", "Tax liability report", "Deduction report"},
				Options:        []string{"Shows taxes owed", "Lists employee deductions", "Summarizes gross-to-net"},
				CorrectMatches: []int{2, 0, 1},
			},
		}
	}
	return out
}

func fillExtras(n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:          fmt.Sprintf("fill-extra-%d", i),
			Domain:      model.Domains[(i+2)%len(model.Domains)],
			Difficulty:  model.DifficultyEasy,
			Prompt:      "Fill in the blank: Payroll must retain records for at least ____ years under typical federal guidance.",
			Explanation: "Many federal requirements call for retention of at least 3 years.",
			Body:        model.Fill{CorrectAnswer: "3"},
		}
	}
	return out
}

// cycle picks levels[id % len(levels)].
func cycle(id int, levels ...model.Difficulty) model.Difficulty {
	return levels[id%len(levels)]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
