package grading

import (
	"math"
	"time"

	"github.com/stemsi/exprep-backend/internal/model"
)

// Outcome is the graded result of one question within a session.
type Outcome struct {
	Question model.Question
	Answer   model.Answer
	Correct  bool
}

// Result is a fully graded session, ready to be recorded.
type Result struct {
	Outcomes        []Outcome
	Correct         int
	Total           int
	Score           int
	DomainBreakdown map[model.Domain]model.DomainScore
}

// GradeSession grades every question in order. Questions without an answer in
// answers are graded against their DefaultAnswer.
func GradeSession(questions []model.Question, answers map[string]model.Answer) Result {
	res := Result{
		Outcomes:        make([]Outcome, 0, len(questions)),
		DomainBreakdown: map[model.Domain]model.DomainScore{},
	}

	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || answer == nil {
			answer = DefaultAnswer(q)
		}
		correct := IsCorrect(q, answer)

		ds := res.DomainBreakdown[q.Domain]
		ds.Total++
		res.Total++
		if correct {
			ds.Correct++
			res.Correct++
		}
		res.DomainBreakdown[q.Domain] = ds
		res.Outcomes = append(res.Outcomes, Outcome{Question: q, Answer: answer, Correct: correct})
	}

	if res.Total > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	}
	return res
}

// Record converts the result into an immutable session record.
func (r Result) Record(id string, mode model.SessionMode, startedAt, finishedAt time.Time) model.SessionRecord {
	minutes := int(math.Round(finishedAt.Sub(startedAt).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return model.SessionRecord{
		ID:              id,
		Date:            finishedAt,
		Mode:            mode,
		Score:           r.Score,
		DurationMinutes: minutes,
		DomainBreakdown: r.DomainBreakdown,
	}
}
