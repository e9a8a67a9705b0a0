// Package progress folds session records and per-question counters into the
// numbers shown on the dashboard and analytics pages. Every function returns a
// new value and leaves its inputs untouched.
package progress

import (
	"maps"
	"math"
	"time"

	"github.com/stemsi/exprep-backend/internal/grading"
	"github.com/stemsi/exprep-backend/internal/model"
)

const (
	// StreakCap bounds the streak, which counts attempts rather than calendar days.
	StreakCap = 7

	WeakThreshold   = 70
	WeakAreaLimit   = 3
	WeakestDomainN  = 2
	CoverageTarget  = 120
	StabilityAnchor = 70

	RollingWindow = 3
	TrendLength   = 8
)

// Record returns the state after a graded session: rec goes to the front of the
// history (capped at model.MaxHistory) and every graded question's counter is
// incremented.
func Record(state model.ProgressState, rec model.SessionRecord, outcomes []grading.Outcome, now time.Time) model.ProgressState {
	attempts := make([]model.SessionRecord, 0, min(len(state.Attempts)+1, model.MaxHistory))
	attempts = append(attempts, rec)
	for _, a := range state.Attempts {
		if len(attempts) == model.MaxHistory {
			break
		}
		attempts = append(attempts, a)
	}

	stats := maps.Clone(state.StatsByQuestion)
	if stats == nil {
		stats = map[string]model.QuestionAttempt{}
	}
	for _, o := range outcomes {
		s := stats[o.Question.ID]
		s.Seen++
		if o.Correct {
			s.Correct++
		} else {
			missed := now
			s.LastMissed = &missed
		}
		stats[o.Question.ID] = s
	}

	return model.ProgressState{Attempts: attempts, StatsByQuestion: stats}
}

// Summary is the dashboard headline.
type Summary struct {
	Attempts  int `json:"attempts"`
	LastScore int `json:"last_score"`
	BestScore int `json:"best_score"`
	Readiness int `json:"readiness"`
	Streak    int `json:"streak"`
}

// Summarize computes the dashboard summary from most-recent-first records.
func Summarize(records []model.SessionRecord) Summary {
	s := Summary{Attempts: len(records), Readiness: Readiness(records)}
	if len(records) == 0 {
		return s
	}
	s.LastScore = records[0].Score
	for _, r := range records {
		s.BestScore = max(s.BestScore, r.Score)
	}
	s.Streak = min(len(records), StreakCap)
	return s
}

// Readiness is the rounded mean score, 0 without records.
func Readiness(records []model.SessionRecord) int {
	if len(records) == 0 {
		return 0
	}
	return int(math.Round(meanScore(records)))
}

func meanScore(records []model.SessionRecord) float64 {
	total := 0
	for _, r := range records {
		total += r.Score
	}
	return float64(total) / float64(len(records))
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
