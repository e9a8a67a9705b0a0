package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/store"
)

type SettingService struct {
	profile *store.Profile
	log     zerolog.Logger
}

func NewSettingService(profile *store.Profile, log zerolog.Logger) *SettingService {
	return &SettingService{
		profile: profile,
		log:     log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) Get(ctx context.Context, learnerID string) model.Settings {
	return s.profile.Settings(ctx, learnerID)
}

// Update applies a partial update and returns the stored result.
func (s *SettingService) Update(ctx context.Context, learnerID string, req model.UpdateSettingsRequest) (model.Settings, error) {
	next := req.Apply(s.profile.Settings(ctx, learnerID))
	if err := s.profile.SaveSettings(ctx, learnerID, next); err != nil {
		s.log.Error().Err(err).Str("learner_id", learnerID).Msg("failed to update settings")
		return model.Settings{}, err
	}
	return next, nil
}
