// Package builder assembles exam and practice papers from a question bank.
package builder

import (
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/sampler"
)

// ExamSize is the number of questions on a timed exam.
const ExamSize = 30

// DomainQuotas[i] is the number of questions drawn from model.Domains[i].
var DomainQuotas = []int{7, 6, 6, 5, 6}

// TypeTemplate is the per-slot question type mix of a timed exam.
var TypeTemplate = typeTemplate(map[model.QuestionType]int{
	model.QuestionTypeMCQ:     14,
	model.QuestionTypeMSQ:     6,
	model.QuestionTypeNumeric: 7,
	model.QuestionTypeOrder:   2,
	model.QuestionTypeMatch:   1,
})

func typeTemplate(counts map[model.QuestionType]int) []model.QuestionType {
	var slots []model.QuestionType
	for _, typ := range model.QuestionTypes {
		for range counts[typ] {
			slots = append(slots, typ)
		}
	}
	return slots
}

// BuildTimedExam selects a 30-question paper. With a non-empty seed the paper is
// reproducible: the same bank and seed always give the same questions in the
// same order. Short pools degrade to best-effort sampling instead of failing.
//
// Domain quotas apply to the candidate set from SelectByDomain, not to the
// final paper. When the candidates lack a question of a slot's type, the slot
// is filled from the whole bank regardless of domain, so the paper's domain
// counts can deviate from DomainQuotas while its type mix holds.
func BuildTimedExam(questions []model.Question, seed string) []model.Question {
	pool := questions
	if seed != "" {
		pool = sampler.SeededShuffle(questions, seed)
	}

	selected := SelectByDomain(pool, seed)
	candidates := sampler.Sample(selected, len(selected), derive(seed, "types"))
	used := make(map[string]bool, ExamSize)
	paper := make([]model.Question, 0, ExamSize)

	for slot, typ := range TypeTemplate {
		q, ok := firstUnused(candidates, used, func(q model.Question) bool { return q.Type() == typ })
		if !ok {
			q, ok = bankFallback(pool, typ, slot, used)
		}
		if !ok {
			q, ok = firstUnused(candidates, used, func(model.Question) bool { return true })
		}
		if ok {
			used[q.ID] = true
			paper = append(paper, q)
		}
	}

	if len(paper) != ExamSize {
		paper = sampler.Sample(pool, ExamSize, seed)
	}
	return sampler.Sample(paper, ExamSize, derive(seed, "final"))
}

// SelectByDomain draws DomainQuotas[i] questions from model.Domains[i], or the
// whole domain when it has fewer.
func SelectByDomain(pool []model.Question, seed string) []model.Question {
	var selected []model.Question
	for i, domain := range model.Domains {
		inDomain := filter(pool, func(q model.Question) bool { return q.Domain == domain })
		selected = append(selected, sampler.Sample(inDomain, DomainQuotas[i], derive(seed, string(domain)))...)
	}
	return selected
}

// bankFallback takes the first unused question of typ from the whole bank,
// starting at slot modulo the number of such questions.
func bankFallback(pool []model.Question, typ model.QuestionType, slot int, used map[string]bool) (model.Question, bool) {
	ofType := filter(pool, func(q model.Question) bool { return q.Type() == typ })
	for i := range ofType {
		q := ofType[(slot+i)%len(ofType)]
		if !used[q.ID] {
			return q, true
		}
	}
	return model.Question{}, false
}

func firstUnused(candidates []model.Question, used map[string]bool, match func(model.Question) bool) (model.Question, bool) {
	for _, q := range candidates {
		if !used[q.ID] && match(q) {
			return q, true
		}
	}
	return model.Question{}, false
}

func derive(seed, suffix string) string {
	if seed == "" {
		return ""
	}
	return seed + "-" + suffix
}

func filter(questions []model.Question, keep func(model.Question) bool) []model.Question {
	var out []model.Question
	for _, q := range questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}
