package builder

import (
	"slices"

	"github.com/stemsi/exprep-backend/internal/grading"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/sampler"
)

// PracticeConfig filters a practice pool. A question must match one entry of
// every list; an empty list matches nothing.
type PracticeConfig struct {
	Count      int
	Domains    []model.Domain
	Types      []model.QuestionType
	Difficulty []model.Difficulty
}

// BuildPractice samples cfg.Count questions from source after filtering. When
// the filter leaves nothing, the unfiltered source is used instead.
func BuildPractice(cfg PracticeConfig, source []model.Question) []model.Question {
	pool := filter(source, func(q model.Question) bool {
		return slices.Contains(cfg.Domains, q.Domain) &&
			slices.Contains(cfg.Types, q.Type()) &&
			slices.Contains(cfg.Difficulty, q.Difficulty)
	})
	if len(pool) == 0 {
		pool = source
	}
	return sampler.Sample(pool, cfg.Count, "")
}

// RepeatMissedPool keeps questions the learner has missed at least once.
func RepeatMissedPool(questions []model.Question, stats map[string]model.QuestionAttempt) []model.Question {
	return filter(questions, func(q model.Question) bool {
		s, ok := stats[q.ID]
		return ok && s.Seen > 0 && s.Correct < s.Seen
	})
}

// StudySetPool keeps questions whose id is in ids, in bank order.
func StudySetPool(questions []model.Question, ids []string) []model.Question {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return filter(questions, func(q model.Question) bool {
		_, ok := allowed[q.ID]
		return ok
	})
}

// StudySetIDs collects the wrong and flagged question ids of a graded session,
// in paper order, without duplicates.
func StudySetIDs(outcomes []grading.Outcome, flagged []string) []string {
	isFlagged := make(map[string]bool, len(flagged))
	for _, id := range flagged {
		isFlagged[id] = true
	}

	ids := []string{}
	for _, o := range outcomes {
		if !o.Correct || isFlagged[o.Question.ID] {
			ids = append(ids, o.Question.ID)
		}
	}
	return ids
}

// AllFilters returns a config that admits every question.
func AllFilters(count int) PracticeConfig {
	return PracticeConfig{
		Count:      count,
		Domains:    slices.Clone(model.Domains),
		Types:      slices.Clone(model.QuestionTypes),
		Difficulty: slices.Clone(model.Difficulties),
	}
}
