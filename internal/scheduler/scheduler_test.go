package scheduler_test

import (
	"testing"
	"time"

	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/scheduler"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRateFirstReview(t *testing.T) {
	got := scheduler.Rate(nil, model.RatingGood, t0)

	if got.IntervalDays != 2 {
		t.Fatalf("interval = %d, want 2", got.IntervalDays)
	}
	if !got.NextDueAt.Equal(t0.Add(48 * time.Hour)) {
		t.Fatalf("next due = %v", got.NextDueAt)
	}
	if got.TimesSeen != 1 || got.TimesCorrect != 1 || got.Confidence != 1 {
		t.Fatalf("counters = %+v", got)
	}
	if got.LastSeenAt == nil || !got.LastSeenAt.Equal(t0) || got.LastMissedAt != nil {
		t.Fatalf("timestamps = %v / %v", got.LastSeenAt, got.LastMissedAt)
	}
}

func TestEasyStrictlyGrowsInterval(t *testing.T) {
	var entry *model.FlashcardEntry
	prev := scheduler.InitialInterval
	now := t0
	for i := range 6 {
		next := scheduler.Rate(entry, model.RatingEasy, now)
		if next.IntervalDays <= prev {
			t.Fatalf("step %d: interval %d did not grow past %d", i, next.IntervalDays, prev)
		}
		prev = next.IntervalDays
		entry = &next
		now = next.NextDueAt
	}
}

func TestAgainShrinksAndMarksMiss(t *testing.T) {
	entry := model.FlashcardEntry{IntervalDays: 10, Confidence: 3, NextDueAt: t0}
	got := scheduler.Rate(&entry, model.RatingAgain, t0)

	if got.IntervalDays != 4 {
		t.Fatalf("interval = %d, want 4", got.IntervalDays)
	}
	if got.LastMissedAt == nil || !got.LastMissedAt.Equal(t0) {
		t.Fatalf("lastMissedAt = %v", got.LastMissedAt)
	}
	if got.Confidence != 1 || got.TimesCorrect != 0 {
		t.Fatalf("got %+v", got)
	}
	if entry.IntervalDays != 10 {
		t.Fatal("previous entry was modified")
	}
}

func TestIntervalNeverBelowOne(t *testing.T) {
	got := scheduler.Rate(nil, model.RatingAgain, t0)
	if got.IntervalDays != 1 {
		t.Fatalf("interval = %d, want 1", got.IntervalDays)
	}
}

func TestConfidenceStaysInRange(t *testing.T) {
	ratings := []model.Rating{
		model.RatingEasy, model.RatingEasy, model.RatingEasy, model.RatingGood,
		model.RatingAgain, model.RatingAgain, model.RatingAgain, model.RatingHard, model.RatingGood,
	}
	var entry *model.FlashcardEntry
	for _, r := range ratings {
		next := scheduler.Rate(entry, r, t0)
		if next.Confidence < scheduler.MinConfidence || next.Confidence > scheduler.MaxConfidence {
			t.Fatalf("confidence %d out of range after %s", next.Confidence, r)
		}
		entry = &next
	}
	if entry.Confidence != 1 {
		t.Fatalf("final confidence = %d, want 1", entry.Confidence)
	}
}

func TestHardKeepsIntervalAndPreservesMiss(t *testing.T) {
	missed := t0.Add(-72 * time.Hour)
	entry := model.FlashcardEntry{IntervalDays: 3, LastMissedAt: &missed, Confidence: 2}
	got := scheduler.Rate(&entry, model.RatingHard, t0)
	if got.IntervalDays != 3 || !got.LastMissedAt.Equal(missed) || got.Confidence != 1 {
		t.Fatalf("got %+v", got)
	}
}

func TestDueAndReviewable(t *testing.T) {
	questions := []model.Question{{ID: "new"}, {ID: "due"}, {ID: "later"}, {ID: "exact"}}
	schedule := model.FlashcardMap{
		"due":   {NextDueAt: t0.Add(-time.Hour), IntervalDays: 1},
		"later": {NextDueAt: t0.Add(time.Hour), IntervalDays: 1, Confidence: 3},
		"exact": {NextDueAt: t0, IntervalDays: 1},
	}

	due := scheduler.Reviewable(questions, schedule, t0)
	if len(due) != 3 || due[0].ID != "new" || due[1].ID != "due" || due[2].ID != "exact" {
		t.Fatalf("reviewable = %v", due)
	}

	stats := scheduler.Stats(questions, schedule, t0)
	want := model.DeckStats{Total: 4, Due: 3, Scheduled: 3, Mastered: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}
