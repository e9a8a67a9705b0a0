package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/store"
)

// Bank errors.
var (
	ErrAuthorModeOff     = errors.New("author mode is disabled")
	ErrUnknownQuestion   = errors.New("question not found")
	ErrRemoteUnavailable = errors.New("remote bank store is not configured")
	ErrVersionExists     = errors.New("bank version already published")
)

// RemoteBankStore is the optional published-bank backend.
type RemoteBankStore interface {
	LatestVersion(ctx context.Context) (string, error)
	LoadQuestions(ctx context.Context, version string) ([]model.Question, error)
	ListVersions(ctx context.Context) ([]model.BankVersion, error)
	Publish(ctx context.Context, v model.BankVersion, questions []model.Question) error
}

// RemoteBankName is the display name of published banks.
const RemoteBankName = "Published Bank"

// BankService resolves which questions a learner practices against: a published
// remote bank when enabled and reachable, otherwise the local catalog, with the
// learner's authored questions in front.
type BankService struct {
	local     bank.Bank
	remote    RemoteBankStore
	useRemote bool
	pinned    string
	timeout   time.Duration
	profile   *store.Profile
	log       zerolog.Logger

	mu    sync.RWMutex
	cache map[string]bank.Bank
}

// NewBankService creates a new BankService. remote may be nil.
func NewBankService(cfg *config.Config, local bank.Bank, remote RemoteBankStore, profile *store.Profile, log zerolog.Logger) *BankService {
	return &BankService{
		local:     local,
		remote:    remote,
		useRemote: cfg.RemoteBankEnabled && remote != nil,
		pinned:    cfg.RemoteBankVersion,
		timeout:   cfg.RemoteBankTimeout,
		profile:   profile,
		log:       log.With().Str("component", "bank_service").Logger(),
		cache:     map[string]bank.Bank{},
	}
}

// Base returns the shared bank without any learner's custom questions. Remote
// failures are logged and answered with the local catalog.
func (s *BankService) Base(ctx context.Context) bank.Bank {
	if !s.useRemote {
		return s.local
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	version := s.pinned
	if version == "" {
		latest, err := s.remote.LatestVersion(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Remote bank lookup failed, using local bank")
			return s.local
		}
		version = latest
	}

	s.mu.RLock()
	cached, ok := s.cache[version]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	questions, err := s.remote.LoadQuestions(ctx, version)
	if err != nil || len(questions) == 0 {
		s.log.Warn().Err(err).Str("version", version).Msg("Remote bank load failed, using local bank")
		return s.local
	}

	b := bank.Bank{Name: RemoteBankName, Version: version, Questions: questions}
	s.mu.Lock()
	s.cache[version] = b
	s.mu.Unlock()

	s.log.Info().Str("version", version).Int("questions", len(questions)).Msg("Remote bank loaded")
	return b
}

// Active returns the bank a learner's sessions draw from.
func (s *BankService) Active(ctx context.Context, learnerID string) bank.Bank {
	return s.Base(ctx).WithCustom(s.profile.CustomBank(ctx, learnerID))
}

// Summary describes the learner's active bank.
func (s *BankService) Summary(ctx context.Context, learnerID string) model.BankSummary {
	custom := s.profile.CustomBank(ctx, learnerID)
	b := s.Base(ctx).WithCustom(custom)
	stats := b.Stats()
	return model.BankSummary{
		Name:     b.Name,
		Version:  b.Version,
		Total:    stats.Total,
		ByDomain: stats.ByDomain,
		ByType:   stats.ByType,
		Custom:   len(custom),
	}
}

// CustomQuestions returns the learner's authored questions.
func (s *BankService) CustomQuestions(ctx context.Context, learnerID string) []model.Question {
	return s.profile.CustomBank(ctx, learnerID)
}

// UpsertCustom validates and saves an authored question, replacing any custom
// question with the same id.
func (s *BankService) UpsertCustom(ctx context.Context, learnerID string, draft model.QuestionDraft) (model.Question, error) {
	if !s.profile.Settings(ctx, learnerID).AuthorMode {
		return model.Question{}, ErrAuthorModeOff
	}
	if err := bank.Check(draft); err != nil {
		return model.Question{}, err
	}
	q, err := draft.Build()
	if err != nil {
		return model.Question{}, err
	}

	custom := s.profile.CustomBank(ctx, learnerID)
	replaced := false
	for i := range custom {
		if custom[i].ID == q.ID {
			custom[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		custom = append(custom, q)
	}

	if err := s.profile.SaveCustomBank(ctx, learnerID, custom); err != nil {
		return model.Question{}, fmt.Errorf("save custom bank: %w", err)
	}
	return q, nil
}

// ImportCustom validates every draft and, only if all pass, saves them.
func (s *BankService) ImportCustom(ctx context.Context, learnerID string, drafts []model.QuestionDraft) (int, error) {
	if !s.profile.Settings(ctx, learnerID).AuthorMode {
		return 0, ErrAuthorModeOff
	}

	questions, err := buildAll(drafts)
	if err != nil {
		return 0, err
	}

	// Imported questions win over existing custom ones with the same id.
	custom := bank.Bank{Questions: s.profile.CustomBank(ctx, learnerID)}.WithCustom(questions).Questions

	if err := s.profile.SaveCustomBank(ctx, learnerID, custom); err != nil {
		return 0, fmt.Errorf("save custom bank: %w", err)
	}
	return len(questions), nil
}

// DeleteCustom removes an authored question.
func (s *BankService) DeleteCustom(ctx context.Context, learnerID, questionID string) error {
	if !s.profile.Settings(ctx, learnerID).AuthorMode {
		return ErrAuthorModeOff
	}

	custom := s.profile.CustomBank(ctx, learnerID)
	kept := custom[:0]
	for _, q := range custom {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(custom) {
		return ErrUnknownQuestion
	}
	return s.profile.SaveCustomBank(ctx, learnerID, kept)
}

// Versions lists published remote versions.
func (s *BankService) Versions(ctx context.Context) ([]model.BankVersion, error) {
	if s.remote == nil {
		return []model.BankVersion{}, nil
	}
	return s.remote.ListVersions(ctx)
}

// Publish validates a full question set and stores it as a new remote version.
func (s *BankService) Publish(ctx context.Context, learner model.Learner, req model.PublishBankRequest) (*model.BankVersion, error) {
	if s.remote == nil {
		return nil, ErrRemoteUnavailable
	}

	questions, err := buildAll(req.Questions)
	if err != nil {
		return nil, err
	}

	v := model.BankVersion{
		Version:       req.Version,
		Notes:         req.Notes,
		QuestionCount: len(questions),
		PublishedBy:   learner.AccountID,
		PublishedAt:   time.Now().UTC(),
	}
	if err := s.remote.Publish(ctx, v, questions); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrVersionExists
		}
		return nil, fmt.Errorf("publish bank: %w", err)
	}

	s.log.Info().Str("version", v.Version).Int("questions", v.QuestionCount).Str("by", learner.AccountID).Msg("Bank version published")
	return &v, nil
}

// buildAll validates drafts and reports every problem, each prefixed with its
// question id, as a single ValidationError.
func buildAll(drafts []model.QuestionDraft) ([]model.Question, error) {
	var problems []string
	seen := make(map[string]bool, len(drafts))
	questions := make([]model.Question, 0, len(drafts))

	for i, d := range drafts {
		label := d.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if d.ID != "" && seen[d.ID] {
			problems = append(problems, fmt.Sprintf("%s: ID is duplicated.", label))
		}
		seen[d.ID] = true

		if p := bank.Validate(d); len(p) > 0 {
			for _, msg := range p {
				problems = append(problems, label+": "+msg)
			}
			continue
		}
		q, err := d.Build()
		if err != nil {
			problems = append(problems, label+": "+err.Error())
			continue
		}
		questions = append(questions, q)
	}

	if len(problems) > 0 {
		return nil, &bank.ValidationError{Problems: problems}
	}
	return questions, nil
}
