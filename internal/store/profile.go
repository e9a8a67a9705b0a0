package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
)

// Profile reads and writes one learner's documents with typed defaults.
type Profile struct {
	kv  KV
	log zerolog.Logger
}

func NewProfile(kv KV, log zerolog.Logger) *Profile {
	return &Profile{kv: kv, log: log.With().Str("component", "profile_store").Logger()}
}

func (p *Profile) key(learnerID, name string) string {
	return config.CacheKey.LearnerKey(learnerID, name)
}

func (p *Profile) Settings(ctx context.Context, learnerID string) model.Settings {
	return GetJSON(ctx, p.kv, p.log, p.key(learnerID, config.ProfileSettings), model.DefaultSettings())
}

func (p *Profile) SaveSettings(ctx context.Context, learnerID string, s model.Settings) error {
	return SetJSON(ctx, p.kv, p.key(learnerID, config.ProfileSettings), s, 0)
}

func (p *Profile) Progress(ctx context.Context, learnerID string) model.ProgressState {
	state := GetJSON(ctx, p.kv, p.log, p.key(learnerID, config.ProfileProgress), model.NewProgressState())
	if state.Attempts == nil {
		state.Attempts = []model.SessionRecord{}
	}
	if state.StatsByQuestion == nil {
		state.StatsByQuestion = map[string]model.QuestionAttempt{}
	}
	return state
}

func (p *Profile) SaveProgress(ctx context.Context, learnerID string, state model.ProgressState) error {
	return SetJSON(ctx, p.kv, p.key(learnerID, config.ProfileProgress), state, 0)
}

func (p *Profile) Flashcards(ctx context.Context, learnerID string) model.FlashcardMap {
	m := GetJSON(ctx, p.kv, p.log, p.key(learnerID, config.ProfileFlashcards), model.FlashcardMap{})
	if m == nil {
		m = model.FlashcardMap{}
	}
	return m
}

func (p *Profile) SaveFlashcards(ctx context.Context, learnerID string, m model.FlashcardMap) error {
	return SetJSON(ctx, p.kv, p.key(learnerID, config.ProfileFlashcards), m, 0)
}

func (p *Profile) CustomBank(ctx context.Context, learnerID string) []model.Question {
	qs := GetJSON(ctx, p.kv, p.log, p.key(learnerID, config.ProfileCustomBank), []model.Question{})
	if qs == nil {
		qs = []model.Question{}
	}
	return qs
}

func (p *Profile) SaveCustomBank(ctx context.Context, learnerID string, qs []model.Question) error {
	return SetJSON(ctx, p.kv, p.key(learnerID, config.ProfileCustomBank), qs, 0)
}

func (p *Profile) StudySet(ctx context.Context, learnerID string) []string {
	ids := GetJSON(ctx, p.kv, p.log, p.key(learnerID, config.ProfileStudySet), []string{})
	if ids == nil {
		ids = []string{}
	}
	return ids
}

func (p *Profile) SaveStudySet(ctx context.Context, learnerID string, ids []string) error {
	return SetJSON(ctx, p.kv, p.key(learnerID, config.ProfileStudySet), ids, 0)
}

// Session returns an active session, or false if it is unknown or expired.
func (p *Profile) Session(ctx context.Context, learnerID, sessionID string) (model.ActiveSession, bool) {
	s := GetJSON(ctx, p.kv, p.log, config.CacheKey.ActiveSessionKey(learnerID, sessionID), model.ActiveSession{})
	return s, s.ID != ""
}

func (p *Profile) SaveSession(ctx context.Context, learnerID string, s model.ActiveSession, ttl time.Duration) error {
	return SetJSON(ctx, p.kv, config.CacheKey.ActiveSessionKey(learnerID, s.ID), s, ttl)
}

// TakeSession removes an active session and returns it. When callers race for
// the same session only one gets true.
func (p *Profile) TakeSession(ctx context.Context, learnerID, sessionID string) (model.ActiveSession, bool) {
	key := config.CacheKey.ActiveSessionKey(learnerID, sessionID)
	raw, err := p.kv.Take(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.log.Warn().Err(err).Str("key", key).Msg("Store take failed")
		}
		return model.ActiveSession{}, false
	}

	var s model.ActiveSession
	if err := json.Unmarshal(raw, &s); err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("Stored session is corrupt, discarding")
		return model.ActiveSession{}, false
	}
	return s, s.ID != ""
}

// Wipe removes progress, flashcards and the study set. Settings and the custom
// bank survive.
func (p *Profile) Wipe(ctx context.Context, learnerID string) error {
	return p.kv.Delete(ctx,
		p.key(learnerID, config.ProfileProgress),
		p.key(learnerID, config.ProfileFlashcards),
		p.key(learnerID, config.ProfileStudySet),
	)
}
