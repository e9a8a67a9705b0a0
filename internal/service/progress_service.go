package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/progress"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/store"
)

// DashboardData consolidates the headline numbers of the learner dashboard.
type DashboardData struct {
	progress.Summary
	BankName    string          `json:"bank_name"`
	BankVersion string          `json:"bank_version"`
	BankSize    int             `json:"bank_size"`
	WeakAreas   []model.Domain  `json:"weak_areas"`
	Deck        model.DeckStats `json:"deck"`
}

// ProgressService exposes a learner's history and derived statistics.
type ProgressService struct {
	banks      *BankService
	flashcards *FlashcardService
	profile    *store.Profile
	log        zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(banks *BankService, flashcards *FlashcardService, profile *store.Profile, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		banks:      banks,
		flashcards: flashcards,
		profile:    profile,
		log:        log.With().Str("component", "progress_service").Logger(),
	}
}

// Dashboard returns the learner's summary against the active bank.
func (s *ProgressService) Dashboard(ctx context.Context, learnerID string) *DashboardData {
	state := s.profile.Progress(ctx, learnerID)
	b := s.banks.Active(ctx, learnerID)

	return &DashboardData{
		Summary:     progress.Summarize(state.Attempts),
		BankName:    b.Name,
		BankVersion: b.Version,
		BankSize:    b.Len(),
		WeakAreas:   progress.WeakAreas(progress.DomainAccuracies(state.Attempts)),
		Deck:        s.flashcards.Stats(ctx, learnerID),
	}
}

// Analytics returns the analytics page numbers.
func (s *ProgressService) Analytics(ctx context.Context, learnerID string) progress.Analytics {
	state := s.profile.Progress(ctx, learnerID)
	return progress.Analyze(state, s.banks.Active(ctx, learnerID).Questions)
}

// History returns up to limit session records, most recent first. limit <= 0
// returns the whole stored history.
func (s *ProgressService) History(ctx context.Context, learnerID string, limit int) []model.SessionRecord {
	attempts := s.profile.Progress(ctx, learnerID).Attempts
	if limit > 0 && len(attempts) > limit {
		attempts = attempts[:limit]
	}
	return attempts
}

// HistoryPage returns one page of the session history, most recent first.
func (s *ProgressService) HistoryPage(ctx context.Context, learnerID string, page, perPage int) ([]model.SessionRecord, *response.Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > model.MaxHistory {
		perPage = model.MaxHistory
	}

	attempts := s.History(ctx, learnerID, 0)
	total := len(attempts)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	records := attempts[start:end]
	if records == nil {
		records = []model.SessionRecord{}
	}

	return records, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

// Wipe deletes progress, flashcards and the study set.
func (s *ProgressService) Wipe(ctx context.Context, learnerID string) error {
	if err := s.profile.Wipe(ctx, learnerID); err != nil {
		return fmt.Errorf("wipe learner data: %w", err)
	}
	s.log.Info().Str("learner_id", learnerID).Msg("Learner data wiped")
	return nil
}
