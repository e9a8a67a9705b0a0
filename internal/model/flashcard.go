package model

import "time"

// Rating is a recall rating, ordered worst to best.
type Rating string

const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// FlashcardEntry is the spaced-repetition state of one question.
type FlashcardEntry struct {
	NextDueAt    time.Time  `json:"nextDueAt"`
	IntervalDays int        `json:"intervalDays"`
	TimesSeen    int        `json:"timesSeen"`
	TimesCorrect int        `json:"timesCorrect"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
	LastMissedAt *time.Time `json:"lastMissedAt,omitempty"`
	Confidence   int        `json:"confidence"`
}

// FlashcardMap is the schedule keyed by question id.
type FlashcardMap map[string]FlashcardEntry

// RateFlashcardRequest is the payload for rating a card.
type RateFlashcardRequest struct {
	Rating Rating `json:"rating" binding:"required,oneof=again hard good easy"`
}

// FlashcardCard is a due card as returned to the client.
type FlashcardCard struct {
	Question QuestionForLearner `json:"question"`
	Answer   string             `json:"answer"`
	Entry    *FlashcardEntry    `json:"entry,omitempty"`
}

// DeckStats summarizes the schedule against the active bank.
type DeckStats struct {
	Total     int `json:"total"`
	Due       int `json:"due"`
	Scheduled int `json:"scheduled"`
	Mastered  int `json:"mastered"`
}

// DueFlashcardsQuery limits the due list; 0 returns every reviewable card.
type DueFlashcardsQuery struct {
	Limit *int `form:"limit" json:"limit" binding:"omitempty,min=0,max=1000"`
}
