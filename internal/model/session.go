package model

import "time"

// ActiveSession is an exam or practice run between start and submit.
type ActiveSession struct {
	ID          string      `json:"id"`
	Mode        SessionMode `json:"mode"`
	Seed        string      `json:"seed,omitempty"`
	QuestionIDs []string    `json:"questionIds"`
	StartedAt   time.Time   `json:"startedAt"`
}

// StartExamRequest starts a 30-question timed exam. Same seed, same paper.
type StartExamRequest struct {
	Seed string `json:"seed" binding:"max=128"`
}

// PracticeMode selects how the practice pool is built.
type PracticeMode string

const (
	PracticeModeTopic    PracticeMode = "topic"
	PracticeModeWeakest  PracticeMode = "weakest"
	PracticeModeStudySet PracticeMode = "study_set"
)

// StartPracticeRequest configures a practice session.
type StartPracticeRequest struct {
	Mode         PracticeMode   `json:"mode" binding:"omitempty,oneof=topic weakest study_set"`
	Count        int            `json:"count" binding:"required,min=1,max=200"`
	Domains      []Domain       `json:"domains" binding:"dive,payroll_domain"`
	Types        []QuestionType `json:"types" binding:"dive,oneof=mcq msq numeric fill order match"`
	Difficulty   []Difficulty   `json:"difficulty" binding:"dive,oneof=Easy Medium Hard"`
	RepeatMissed bool           `json:"repeat_missed"`
}

// SessionPaper is what the learner sees after starting a session.
type SessionPaper struct {
	SessionID string               `json:"session_id"`
	Mode      SessionMode          `json:"mode"`
	Seed      string               `json:"seed,omitempty"`
	StartedAt time.Time            `json:"started_at"`
	TimerMins int                  `json:"timer_minutes,omitempty"`
	Questions []QuestionForLearner `json:"questions"`
}

// SubmitSessionRequest carries the learner's answers keyed by question id.
type SubmitSessionRequest struct {
	Answers      map[string]TaggedAnswer `json:"answers"`
	Flagged      []string                `json:"flagged"`
	SaveStudySet bool                    `json:"save_study_set"`
}

// ReviewItem is the graded view of one question.
type ReviewItem struct {
	QuestionID  string `json:"question_id"`
	Prompt      string `json:"prompt"`
	Correct     bool   `json:"correct"`
	Flagged     bool   `json:"flagged,omitempty"`
	Given       string `json:"given"`
	Expected    string `json:"expected"`
	Explanation string `json:"explanation"`
}

// SessionReview is returned on submission.
type SessionReview struct {
	Record SessionRecord `json:"record"`
	Passed bool          `json:"passed"`
	Items  []ReviewItem  `json:"items"`
}
