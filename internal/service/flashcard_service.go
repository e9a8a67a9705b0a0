package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/grading"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/scheduler"
	"github.com/stemsi/exprep-backend/internal/store"
)

// ErrInvalidRating is returned for a rating outside again/hard/good/easy.
var ErrInvalidRating = errors.New("invalid rating")

// FlashcardService drives spaced-repetition review over the active bank.
type FlashcardService struct {
	banks   *BankService
	profile *store.Profile
	now     func() time.Time
	log     zerolog.Logger
}

// NewFlashcardService creates a new FlashcardService.
func NewFlashcardService(banks *BankService, profile *store.Profile, log zerolog.Logger) *FlashcardService {
	return &FlashcardService{
		banks:   banks,
		profile: profile,
		now:     time.Now,
		log:     log.With().Str("component", "flashcard_service").Logger(),
	}
}

// Due returns the reviewable cards in bank order. limit <= 0 returns all.
func (s *FlashcardService) Due(ctx context.Context, learnerID string, limit int) []model.FlashcardCard {
	schedule := s.profile.Flashcards(ctx, learnerID)
	due := scheduler.Reviewable(s.banks.Active(ctx, learnerID).Questions, schedule, s.now())
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	cards := make([]model.FlashcardCard, len(due))
	for i, q := range due {
		cards[i] = model.FlashcardCard{
			Question: q.ForLearner(grading.DefaultAnswer(q)),
			Answer:   grading.CorrectAnswerLabel(q),
		}
		if e, ok := schedule[q.ID]; ok {
			cards[i].Entry = &e
		}
	}
	return cards
}

// Rate applies a recall rating to a card and persists the whole schedule.
func (s *FlashcardService) Rate(ctx context.Context, learnerID, questionID string, rating model.Rating) (model.FlashcardEntry, error) {
	if !scheduler.ValidRating(rating) {
		return model.FlashcardEntry{}, ErrInvalidRating
	}
	if _, ok := s.banks.Active(ctx, learnerID).Index()[questionID]; !ok {
		return model.FlashcardEntry{}, ErrUnknownQuestion
	}

	schedule := s.profile.Flashcards(ctx, learnerID)
	var prev *model.FlashcardEntry
	if e, ok := schedule[questionID]; ok {
		prev = &e
	}

	next := scheduler.Rate(prev, rating, s.now())
	schedule[questionID] = next
	if err := s.profile.SaveFlashcards(ctx, learnerID, schedule); err != nil {
		return model.FlashcardEntry{}, fmt.Errorf("save flashcards: %w", err)
	}
	return next, nil
}

// Reset clears one card's schedule, or the whole deck when questionID is empty.
func (s *FlashcardService) Reset(ctx context.Context, learnerID, questionID string) error {
	schedule := model.FlashcardMap{}
	if questionID != "" {
		schedule = s.profile.Flashcards(ctx, learnerID)
		if _, ok := schedule[questionID]; !ok {
			return ErrUnknownQuestion
		}
		delete(schedule, questionID)
	}
	return s.profile.SaveFlashcards(ctx, learnerID, schedule)
}

// Stats summarizes the deck against the active bank.
func (s *FlashcardService) Stats(ctx context.Context, learnerID string) model.DeckStats {
	return scheduler.Stats(s.banks.Active(ctx, learnerID).Questions, s.profile.Flashcards(ctx, learnerID), s.now())
}
