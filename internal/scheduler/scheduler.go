// Package scheduler implements the flashcard spaced-repetition schedule.
//
// The interval grows by a fixed multiplier per rating. Confidence is tracked for
// reporting only and never feeds back into the interval.
package scheduler

import (
	"math"
	"time"

	"github.com/stemsi/exprep-backend/internal/model"
)

const (
	day = 24 * time.Hour

	// InitialInterval is the interval of a card that has never been rated.
	InitialInterval = 1
	MinConfidence   = 0
	MaxConfidence   = 3
)

var multipliers = map[model.Rating]float64{
	model.RatingAgain: 0.4,
	model.RatingHard:  1.0,
	model.RatingGood:  1.6,
	model.RatingEasy:  2.4,
}

var confidenceDelta = map[model.Rating]int{
	model.RatingAgain: -2,
	model.RatingHard:  -1,
	model.RatingGood:  1,
	model.RatingEasy:  2,
}

// ValidRating reports whether r is one of the four ratings.
func ValidRating(r model.Rating) bool {
	_, ok := multipliers[r]
	return ok
}

// NewEntry is the implicit state of a card before its first rating.
func NewEntry(now time.Time) model.FlashcardEntry {
	return model.FlashcardEntry{NextDueAt: now, IntervalDays: InitialInterval}
}

// Rate applies one rating to prev (nil for a card never rated) and returns the
// next state. prev is not modified. An unknown rating is treated as hard.
func Rate(prev *model.FlashcardEntry, rating model.Rating, now time.Time) model.FlashcardEntry {
	var next model.FlashcardEntry
	if prev != nil {
		next = *prev
	} else {
		next = NewEntry(now)
	}
	if next.IntervalDays < InitialInterval {
		next.IntervalDays = InitialInterval
	}

	m, ok := multipliers[rating]
	if !ok {
		rating, m = model.RatingHard, multipliers[model.RatingHard]
	}

	next.IntervalDays = max(1, int(math.Round(float64(next.IntervalDays)*m)))
	next.NextDueAt = now.Add(time.Duration(next.IntervalDays) * day)
	next.TimesSeen++
	if rating == model.RatingGood || rating == model.RatingEasy {
		next.TimesCorrect++
	}

	seen := now
	next.LastSeenAt = &seen
	if rating == model.RatingAgain {
		missed := now
		next.LastMissedAt = &missed
	}

	next.Confidence = min(MaxConfidence, max(MinConfidence, next.Confidence+confidenceDelta[rating]))
	return next
}

// IsDue reports whether the card for id should be reviewed at now. Cards with no
// entry are always due.
func IsDue(schedule model.FlashcardMap, id string, now time.Time) bool {
	entry, ok := schedule[id]
	return !ok || !entry.NextDueAt.After(now)
}

// Reviewable returns the questions due at now, in bank order.
func Reviewable(questions []model.Question, schedule model.FlashcardMap, now time.Time) []model.Question {
	var due []model.Question
	for _, q := range questions {
		if IsDue(schedule, q.ID, now) {
			due = append(due, q)
		}
	}
	return due
}

// Stats summarizes the schedule for the questions of the active bank. Mastered
// cards have reached maximum confidence.
func Stats(questions []model.Question, schedule model.FlashcardMap, now time.Time) model.DeckStats {
	stats := model.DeckStats{Total: len(questions)}
	for _, q := range questions {
		entry, ok := schedule[q.ID]
		if !ok {
			stats.Due++
			continue
		}
		stats.Scheduled++
		if !entry.NextDueAt.After(now) {
			stats.Due++
		}
		if entry.Confidence >= MaxConfidence {
			stats.Mastered++
		}
	}
	return stats
}
