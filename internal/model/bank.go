package model

import "time"

// LocalBankVersion names the built-in catalog.
const LocalBankVersion = "local"

// BankVersion describes a published remote bank.
type BankVersion struct {
	Version       string    `json:"version"`
	Notes         string    `json:"notes,omitempty"`
	QuestionCount int       `json:"question_count"`
	PublishedBy   string    `json:"published_by,omitempty"`
	PublishedAt   time.Time `json:"published_at"`
}

// PublishBankRequest uploads a full question set as a new remote version.
type PublishBankRequest struct {
	Version   string     `json:"version" binding:"required,min=1,max=64"`
	Notes     string     `json:"notes" binding:"max=500"`
	Questions []QuestionDraft `json:"questions" binding:"required,min=1"`
}

// BankSummary is returned for the active bank.
type BankSummary struct {
	Name     string               `json:"name"`
	Version  string               `json:"version"`
	Total    int                  `json:"total"`
	ByDomain map[Domain]int       `json:"by_domain"`
	ByType   map[QuestionType]int `json:"by_type"`
	Custom   int                  `json:"custom"`
}

// ImportQuestionsRequest adds many authored questions at once. Nothing is
// saved unless every question is valid.
type ImportQuestionsRequest struct {
	Questions []QuestionDraft `json:"questions" binding:"required,min=1,max=500"`
}
