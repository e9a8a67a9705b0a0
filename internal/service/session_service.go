package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/builder"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/grading"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/progress"
	"github.com/stemsi/exprep-backend/internal/store"
)

// ErrSessionNotFound is returned for unknown, expired or already submitted sessions.
var ErrSessionNotFound = errors.New("session not found")

// mirrorTimeout bounds a background enqueue after submission.
const mirrorTimeout = 5 * time.Second

// SyncEnqueuer accepts tasks for the cloud mirror.
type SyncEnqueuer interface {
	Enqueue(ctx context.Context, tasks ...model.SyncTask) error
}

// SessionService runs exams and practice sessions from start to graded review.
type SessionService struct {
	banks   *BankService
	profile *store.Profile
	sync    SyncEnqueuer
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mirrors sync.WaitGroup
}

// NewSessionService creates a new SessionService. enqueuer may be nil.
func NewSessionService(cfg *config.Config, banks *BankService, profile *store.Profile, enqueuer SyncEnqueuer, log zerolog.Logger) *SessionService {
	return &SessionService{
		banks:   banks,
		profile: profile,
		sync:    enqueuer,
		ttl:     cfg.SessionTTL,
		now:     time.Now,
		log:     log.With().Str("component", "session_service").Logger(),
	}
}

// StartExam builds a 30-question timed exam. The same seed against the same
// bank yields the same paper.
func (s *SessionService) StartExam(ctx context.Context, learner model.Learner, req model.StartExamRequest) (*model.SessionPaper, error) {
	b := s.banks.Active(ctx, learner.ID)
	questions := builder.BuildTimedExam(b.Questions, req.Seed)
	return s.open(ctx, learner.ID, model.SessionModeExam, req.Seed, questions)
}

// StartPractice builds a practice session for the requested mode and filters.
func (s *SessionService) StartPractice(ctx context.Context, learner model.Learner, req model.StartPracticeRequest) (*model.SessionPaper, error) {
	b := s.banks.Active(ctx, learner.ID)
	state := s.profile.Progress(ctx, learner.ID)

	source := b.Questions
	cfg := builder.PracticeConfig{
		Count:      req.Count,
		Domains:    orAll(req.Domains, model.Domains),
		Types:      orAll(req.Types, model.QuestionTypes),
		Difficulty: orAll(req.Difficulty, model.Difficulties),
	}

	switch req.Mode {
	case model.PracticeModeWeakest:
		cfg.Domains = progress.WeakestDomains(b.Questions, state.StatsByQuestion)
	case model.PracticeModeStudySet:
		// The study set is consumed: filters are widened and the set cleared.
		if pool := builder.StudySetPool(source, s.profile.StudySet(ctx, learner.ID)); len(pool) > 0 {
			source = pool
		}
		cfg = builder.AllFilters(req.Count)
		if err := s.profile.SaveStudySet(ctx, learner.ID, []string{}); err != nil {
			s.log.Warn().Err(err).Str("learner_id", learner.ID).Msg("Failed to clear study set")
		}
	}

	if req.RepeatMissed {
		if pool := builder.RepeatMissedPool(source, state.StatsByQuestion); len(pool) > 0 {
			source = pool
		}
	}

	questions := builder.BuildPractice(cfg, source)
	return s.open(ctx, learner.ID, model.SessionModePractice, "", questions)
}

// Get returns the paper of an active session.
func (s *SessionService) Get(ctx context.Context, learner model.Learner, sessionID string) (*model.SessionPaper, error) {
	sess, ok := s.profile.Session(ctx, learner.ID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	questions := s.banks.Active(ctx, learner.ID).Lookup(sess.QuestionIDs)
	return s.paper(ctx, learner.ID, sess, questions), nil
}

// Abandon discards an active session without recording it.
func (s *SessionService) Abandon(ctx context.Context, learner model.Learner, sessionID string) error {
	if _, ok := s.profile.TakeSession(ctx, learner.ID, sessionID); !ok {
		return ErrSessionNotFound
	}
	return nil
}

// Submit grades a session, records it in the learner's progress and returns
// the review. Mirroring to the cloud never delays the response.
func (s *SessionService) Submit(ctx context.Context, learner model.Learner, sessionID string, req model.SubmitSessionRequest) (*model.SessionReview, error) {
	// Claiming the session up front means a repeated or concurrent submit
	// cannot record the same attempt twice.
	sess, ok := s.profile.TakeSession(ctx, learner.ID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	questions := s.banks.Active(ctx, learner.ID).Lookup(sess.QuestionIDs)
	answers := make(map[string]model.Answer, len(req.Answers))
	for id, a := range req.Answers {
		if a.Answer != nil {
			answers[id] = a.Answer
		}
	}

	now := s.now()
	result := grading.GradeSession(questions, answers)
	record := result.Record(sess.ID, sess.Mode, sess.StartedAt, now)

	state := progress.Record(s.profile.Progress(ctx, learner.ID), record, result.Outcomes, now)
	if err := s.profile.SaveProgress(ctx, learner.ID, state); err != nil {
		if rerr := s.profile.SaveSession(ctx, learner.ID, sess, s.ttl); rerr != nil {
			s.log.Warn().Err(rerr).Str("session_id", sess.ID).Msg("Failed to restore session after failed submit")
		}
		return nil, fmt.Errorf("save progress: %w", err)
	}

	if req.SaveStudySet {
		ids := builder.StudySetIDs(result.Outcomes, req.Flagged)
		if err := s.profile.SaveStudySet(ctx, learner.ID, ids); err != nil {
			s.log.Warn().Err(err).Str("learner_id", learner.ID).Msg("Failed to save study set")
		}
	}

	settings := s.profile.Settings(ctx, learner.ID)
	if learner.SignedIn() && settings.CloudMode {
		s.mirror(ctx, learner.ID, record, state.StatsByQuestion, now)
	}

	s.log.Info().
		Str("learner_id", learner.ID).
		Str("session_id", sess.ID).
		Str("mode", string(sess.Mode)).
		Int("score", record.Score).
		Msg("Session submitted")

	return &model.SessionReview{
		Record: record,
		Passed: record.Score >= settings.PassThreshold,
		Items:  reviewItems(result.Outcomes, req.Flagged),
	}, nil
}

// Wait blocks until every background mirror enqueue has finished.
func (s *SessionService) Wait() {
	s.mirrors.Wait()
}

func (s *SessionService) open(ctx context.Context, learnerID string, mode model.SessionMode, seed string, questions []model.Question) (*model.SessionPaper, error) {
	sess := model.ActiveSession{
		ID:          uuid.NewString(),
		Mode:        mode,
		Seed:        seed,
		QuestionIDs: make([]string, len(questions)),
		StartedAt:   s.now(),
	}
	for i, q := range questions {
		sess.QuestionIDs[i] = q.ID
	}

	if err := s.profile.SaveSession(ctx, learnerID, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.paper(ctx, learnerID, sess, questions), nil
}

func (s *SessionService) paper(ctx context.Context, learnerID string, sess model.ActiveSession, questions []model.Question) *model.SessionPaper {
	p := &model.SessionPaper{
		SessionID: sess.ID,
		Mode:      sess.Mode,
		Seed:      sess.Seed,
		StartedAt: sess.StartedAt,
		Questions: make([]model.QuestionForLearner, len(questions)),
	}
	if sess.Mode == model.SessionModeExam {
		p.TimerMins = s.profile.Settings(ctx, learnerID).DefaultTimer
	}
	for i, q := range questions {
		p.Questions[i] = q.ForLearner(grading.DefaultAnswer(q))
	}
	return p
}

func (s *SessionService) mirror(ctx context.Context, learnerID string, record model.SessionRecord, stats map[string]model.QuestionAttempt, now time.Time) {
	if s.sync == nil {
		return
	}

	attempt, err := NewSyncTask(model.SyncTaskAttempt, learnerID, record, now)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to build attempt sync task")
		return
	}
	counters, err := NewSyncTask(model.SyncTaskStats, learnerID, stats, now)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to build stats sync task")
		return
	}

	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
		defer cancel()
		if err := s.sync.Enqueue(ctx, attempt, counters); err != nil {
			s.log.Warn().Err(err).Str("learner_id", learnerID).Msg("Failed to enqueue sync tasks")
		}
	}()
}

func reviewItems(outcomes []grading.Outcome, flagged []string) []model.ReviewItem {
	items := make([]model.ReviewItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = model.ReviewItem{
			QuestionID:  o.Question.ID,
			Prompt:      o.Question.Prompt,
			Correct:     o.Correct,
			Flagged:     slices.Contains(flagged, o.Question.ID),
			Given:       grading.FormatAnswer(o.Question, o.Answer),
			Expected:    grading.CorrectAnswerLabel(o.Question),
			Explanation: o.Question.Explanation,
		}
	}
	return items
}

func orAll[T any](values, all []T) []T {
	if len(values) == 0 {
		return slices.Clone(all)
	}
	return values
}
