package model

import "time"

// SessionMode tags a session record.
type SessionMode string

const (
	SessionModeExam     SessionMode = "exam"
	SessionModePractice SessionMode = "practice"
)

// MaxHistory caps the stored attempt history.
const MaxHistory = 50

// DomainScore is a correct/total tally for one domain within a session.
type DomainScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// SessionRecord is the immutable result of one completed exam or practice run.
type SessionRecord struct {
	ID              string                 `json:"id"`
	Date            time.Time              `json:"date"`
	Mode            SessionMode            `json:"mode"`
	Score           int                    `json:"score"`
	DurationMinutes int                    `json:"durationMinutes"`
	DomainBreakdown map[Domain]DomainScore `json:"domainBreakdown"`
}

// QuestionAttempt is the running tally kept per question across sessions.
type QuestionAttempt struct {
	Seen       int        `json:"seen"`
	Correct    int        `json:"correct"`
	LastMissed *time.Time `json:"lastMissed,omitempty"`
}

// ProgressState is the learner's stored history: most-recent-first records plus
// per-question counters.
type ProgressState struct {
	Attempts        []SessionRecord            `json:"attempts"`
	StatsByQuestion map[string]QuestionAttempt `json:"statsByQuestion"`
}

// NewProgressState returns the empty state used when nothing is stored.
func NewProgressState() ProgressState {
	return ProgressState{
		Attempts:        []SessionRecord{},
		StatsByQuestion: map[string]QuestionAttempt{},
	}
}

// HistoryQuery pages through session history.
type HistoryQuery struct {
	Page    int `form:"page" json:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" json:"per_page" binding:"omitempty,min=1,max=50"`
}
