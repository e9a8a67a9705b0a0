package progress

import (
	"math"
	"slices"

	"github.com/stemsi/exprep-backend/internal/model"
)

// DomainAccuracy is a rounded accuracy percentage for one domain.
type DomainAccuracy struct {
	Domain   model.Domain `json:"domain"`
	Accuracy int          `json:"accuracy"`
}

// DifficultyAccuracy is a rounded accuracy percentage for one difficulty.
type DifficultyAccuracy struct {
	Difficulty model.Difficulty `json:"difficulty"`
	Accuracy   int              `json:"accuracy"`
}

// DomainAccuracies sums the session breakdowns per domain, in model.Domains order.
func DomainAccuracies(records []model.SessionRecord) []DomainAccuracy {
	totals := make(map[model.Domain]model.DomainScore, len(model.Domains))
	for _, r := range records {
		for domain, score := range r.DomainBreakdown {
			t := totals[domain]
			t.Correct += score.Correct
			t.Total += score.Total
			totals[domain] = t
		}
	}

	out := make([]DomainAccuracy, len(model.Domains))
	for i, d := range model.Domains {
		out[i] = DomainAccuracy{Domain: d, Accuracy: percent(totals[d].Correct, totals[d].Total)}
	}
	return out
}

// DifficultyAccuracies sums the per-question counters grouped by the difficulty
// of each question in questions.
func DifficultyAccuracies(questions []model.Question, stats map[string]model.QuestionAttempt) []DifficultyAccuracy {
	type tally struct{ seen, correct int }
	totals := map[model.Difficulty]tally{}
	for _, q := range questions {
		s, ok := stats[q.ID]
		if !ok {
			continue
		}
		t := totals[q.Difficulty]
		t.seen += s.Seen
		t.correct += s.Correct
		totals[q.Difficulty] = t
	}

	out := make([]DifficultyAccuracy, len(model.Difficulties))
	for i, d := range model.Difficulties {
		out[i] = DifficultyAccuracy{Difficulty: d, Accuracy: percent(totals[d].correct, totals[d].seen)}
	}
	return out
}

// WeakAreas returns up to three domains below the weak threshold, weakest first.
func WeakAreas(accuracies []DomainAccuracy) []model.Domain {
	weak := slices.Clone(accuracies)
	weak = slices.DeleteFunc(weak, func(a DomainAccuracy) bool { return a.Accuracy >= WeakThreshold })
	slices.SortStableFunc(weak, func(a, b DomainAccuracy) int { return a.Accuracy - b.Accuracy })

	out := []model.Domain{}
	for _, a := range weak {
		if len(out) == WeakAreaLimit {
			break
		}
		out = append(out, a.Domain)
	}
	return out
}

// WeakestDomains returns the two domains with the lowest counter accuracy. Ties
// keep model.Domains order; a domain with no counters counts as 0%.
func WeakestDomains(questions []model.Question, stats map[string]model.QuestionAttempt) []model.Domain {
	type tally struct{ seen, correct int }
	totals := map[model.Domain]tally{}
	for _, q := range questions {
		if s, ok := stats[q.ID]; ok {
			t := totals[q.Domain]
			t.seen += s.Seen
			t.correct += s.Correct
			totals[q.Domain] = t
		}
	}

	type ranked struct {
		domain   model.Domain
		accuracy float64
	}
	rank := make([]ranked, len(model.Domains))
	for i, d := range model.Domains {
		t := totals[d]
		acc := 0.0
		if t.seen > 0 {
			acc = float64(t.correct) / float64(t.seen)
		}
		rank[i] = ranked{domain: d, accuracy: acc}
	}
	slices.SortStableFunc(rank, func(a, b ranked) int {
		switch {
		case a.accuracy < b.accuracy:
			return -1
		case a.accuracy > b.accuracy:
			return 1
		}
		return 0
	})

	out := make([]model.Domain, 0, WeakestDomainN)
	for _, r := range rank[:WeakestDomainN] {
		out = append(out, r.domain)
	}
	return out
}

// ReadinessComposite blends mean score, domain stability around 70% and question
// coverage into a 0-100 score. Very uneven domains can push stability below zero.
func ReadinessComposite(records []model.SessionRecord, stats map[string]model.QuestionAttempt) int {
	overall := 0.0
	if len(records) > 0 {
		overall = meanScore(records) / 100
	}

	accuracies := DomainAccuracies(records)
	deviation := 0.0
	for _, a := range accuracies {
		deviation += math.Abs(float64(a.Accuracy - StabilityAnchor))
	}
	stability := 1 - deviation/float64(len(accuracies)*100)

	coverage := math.Min(float64(len(stats))/CoverageTarget, 1)

	return int(math.Round(100 * (0.5*overall + 0.3*stability + 0.2*coverage)))
}

// RollingAverage returns the trailing three-attempt mean score for the eight most
// recent records, oldest first.
func RollingAverage(records []model.SessionRecord) []float64 {
	recent := records[:min(len(records), TrendLength)]
	chrono := slices.Clone(recent)
	slices.Reverse(chrono)

	out := make([]float64, len(chrono))
	for i := range chrono {
		window := chrono[max(0, i-RollingWindow+1) : i+1]
		out[i] = meanScore(window)
	}
	return out
}

// Analytics is everything the analytics page shows.
type Analytics struct {
	DomainAccuracy     []DomainAccuracy     `json:"domain_accuracy"`
	DifficultyAccuracy []DifficultyAccuracy `json:"difficulty_accuracy"`
	WeakAreas          []model.Domain       `json:"weak_areas"`
	WeakestDomains     []model.Domain       `json:"weakest_domains"`
	ReadinessComposite int                  `json:"readiness_composite"`
	RollingAverage     []float64            `json:"rolling_average"`
	RecentScores       []int                `json:"recent_scores"`
}

// Analyze computes the analytics for a learner's state against the active bank.
func Analyze(state model.ProgressState, questions []model.Question) Analytics {
	domains := DomainAccuracies(state.Attempts)

	recent := state.Attempts[:min(len(state.Attempts), TrendLength)]
	scores := make([]int, len(recent))
	for i, r := range recent {
		scores[i] = r.Score
	}

	return Analytics{
		DomainAccuracy:     domains,
		DifficultyAccuracy: DifficultyAccuracies(questions, state.StatsByQuestion),
		WeakAreas:          WeakAreas(domains),
		WeakestDomains:     WeakestDomains(questions, state.StatsByQuestion),
		ReadinessComposite: ReadinessComposite(state.Attempts, state.StatsByQuestion),
		RollingAverage:     RollingAverage(state.Attempts),
		RecentScores:       scores,
	}
}
