package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/store"
)

type fakeRemote struct {
	mu        sync.Mutex
	latest    string
	versions  map[string][]model.Question
	err       error
	loads     int
	published []model.BankVersion
}

func (f *fakeRemote) LatestVersion(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.latest, nil
}

func (f *fakeRemote) LoadQuestions(_ context.Context, version string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.versions[version], nil
}

func (f *fakeRemote) ListVersions(context.Context) ([]model.BankVersion, error) {
	return f.published, f.err
}

func (f *fakeRemote) Publish(_ context.Context, v model.BankVersion, _ []model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, v)
	return nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []model.SyncTask
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, tasks ...model.SyncTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, tasks...)
	return nil
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func scenarioBank() bank.Bank {
	return bank.Bank{
		Name:    "Test Bank",
		Version: model.LocalBankVersion,
		Questions: []model.Question{
			{
				ID: "mcq-1", Domain: model.DomainTax, Difficulty: model.DifficultyEasy,
				Prompt: "Pick B", Explanation: "B is right.",
				Body: model.MCQ{Options: []string{"A", "B", "C"}, CorrectIndex: 1},
			},
			{
				ID: "num-1", Domain: model.DomainTax, Difficulty: model.DifficultyMedium,
				Prompt: "Gross pay?", Explanation: "100.",
				Body: model.Numeric{CorrectValue: 100, Tolerance: 0.5},
			},
		},
	}
}

type fixture struct {
	cfg        *config.Config
	profile    *store.Profile
	banks      *BankService
	sessions   *SessionService
	flashcards *FlashcardService
	progress   *ProgressService
	settings   *SettingService
	enqueuer   *fakeEnqueuer
	now        time.Time
}

func newFixture(t *testing.T, local bank.Bank, remote RemoteBankStore, remoteEnabled bool) *fixture {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.Config{
		RemoteBankEnabled: remoteEnabled,
		RemoteBankTimeout: time.Second,
		SessionTTL:        time.Hour,
	}
	f := &fixture{
		cfg:      cfg,
		profile:  store.NewProfile(store.NewMemoryKV(), log),
		enqueuer: &fakeEnqueuer{},
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	f.banks = NewBankService(cfg, local, remote, f.profile, log)
	f.sessions = NewSessionService(cfg, f.banks, f.profile, f.enqueuer, log)
	f.flashcards = NewFlashcardService(f.banks, f.profile, log)
	f.progress = NewProgressService(f.banks, f.flashcards, f.profile, log)
	f.settings = NewSettingService(f.profile, log)

	clock := func() time.Time { return f.now }
	f.sessions.now = clock
	f.flashcards.now = clock
	return f
}

func TestBankServiceFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{err: errors.New("connection refused")}
	f := newFixture(t, scenarioBank(), remote, true)

	got := f.banks.Base(ctx)
	if got.Version != model.LocalBankVersion || got.Len() != 2 {
		t.Fatalf("Base() = %s with %d questions, want local bank", got.Version, got.Len())
	}
}

func TestBankServiceEmptyRemoteFallsBack(t *testing.T) {
	remote := &fakeRemote{latest: "v1", versions: map[string][]model.Question{}}
	f := newFixture(t, scenarioBank(), remote, true)

	if got := f.banks.Base(context.Background()); got.Version != model.LocalBankVersion {
		t.Fatalf("Base().Version = %q, want local", got.Version)
	}
}

func TestBankServiceCachesRemoteVersion(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{
		latest:   "v2",
		versions: map[string][]model.Question{"v2": scenarioBank().Questions[:1]},
	}
	f := newFixture(t, bank.Bank{Name: "local"}, remote, true)

	for range 3 {
		got := f.banks.Base(ctx)
		if got.Version != "v2" || got.Len() != 1 || got.Name != RemoteBankName {
			t.Fatalf("Base() = %+v, want remote v2", got)
		}
	}
	if remote.loads != 1 {
		t.Errorf("LoadQuestions called %d times, want 1", remote.loads)
	}
}

func TestBankServicePinnedVersion(t *testing.T) {
	remote := &fakeRemote{
		latest: "v2",
		versions: map[string][]model.Question{
			"v1": scenarioBank().Questions,
			"v2": scenarioBank().Questions[:1],
		},
	}
	f := newFixture(t, bank.Bank{}, remote, true)
	f.banks.pinned = "v1"

	if got := f.banks.Base(context.Background()); got.Version != "v1" || got.Len() != 2 {
		t.Fatalf("Base() = %s/%d, want pinned v1 with 2 questions", got.Version, got.Len())
	}
}

func TestBankServiceRemoteDisabled(t *testing.T) {
	remote := &fakeRemote{latest: "v1", versions: map[string][]model.Question{"v1": scenarioBank().Questions[:1]}}
	f := newFixture(t, scenarioBank(), remote, false)

	if got := f.banks.Base(context.Background()); got.Version != model.LocalBankVersion {
		t.Fatalf("Base().Version = %q, want local", got.Version)
	}
	if remote.loads != 0 {
		t.Errorf("remote consulted %d times while disabled", remote.loads)
	}
}

func TestUpsertCustom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	draft := model.QuestionDraft{
		ID: "custom-1", Domain: model.DomainEthics, Difficulty: model.DifficultyHard,
		Type: model.QuestionTypeFill, Prompt: "Form?", Explanation: "W-4.", CorrectAnswer: "W-4",
	}

	if _, err := f.banks.UpsertCustom(ctx, "learner", draft); !errors.Is(err, ErrAuthorModeOff) {
		t.Fatalf("err = %v, want ErrAuthorModeOff", err)
	}

	on := true
	if _, err := f.settings.Update(ctx, "learner", model.UpdateSettingsRequest{AuthorMode: &on}); err != nil {
		t.Fatal(err)
	}

	bad := draft
	bad.CorrectAnswer = ""
	var verr *bank.ValidationError
	if _, err := f.banks.UpsertCustom(ctx, "learner", bad); !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *bank.ValidationError", err)
	}

	if _, err := f.banks.UpsertCustom(ctx, "learner", draft); err != nil {
		t.Fatal(err)
	}
	draft.Prompt = "Which form?"
	if _, err := f.banks.UpsertCustom(ctx, "learner", draft); err != nil {
		t.Fatal(err)
	}

	active := f.banks.Active(ctx, "learner")
	if active.Len() != 3 || active.Questions[0].ID != "custom-1" || active.Questions[0].Prompt != "Which form?" {
		t.Fatalf("active bank = %d questions, first %+v", active.Len(), active.Questions[0])
	}
	if other := f.banks.Active(ctx, "someone-else"); other.Len() != 2 {
		t.Errorf("custom question leaked to another learner")
	}

	if err := f.banks.DeleteCustom(ctx, "learner", "nope"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("delete unknown err = %v", err)
	}
	if err := f.banks.DeleteCustom(ctx, "learner", "custom-1"); err != nil {
		t.Fatal(err)
	}
	if n := len(f.banks.CustomQuestions(ctx, "learner")); n != 0 {
		t.Errorf("custom bank has %d questions after delete", n)
	}
}

func TestImportCustomRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	on := true
	if _, err := f.settings.Update(ctx, "learner", model.UpdateSettingsRequest{AuthorMode: &on}); err != nil {
		t.Fatal(err)
	}

	good := scenarioBank().Questions[0].Draft()
	good.ID = "import-1"
	bad := model.QuestionDraft{ID: "import-2", Type: model.QuestionTypeMCQ}

	var verr *bank.ValidationError
	if _, err := f.banks.ImportCustom(ctx, "learner", []model.QuestionDraft{good, bad}); !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *bank.ValidationError", err)
	}
	if n := len(f.banks.CustomQuestions(ctx, "learner")); n != 0 {
		t.Fatalf("partial import saved %d questions", n)
	}

	n, err := f.banks.ImportCustom(ctx, "learner", []model.QuestionDraft{good})
	if err != nil || n != 1 {
		t.Fatalf("ImportCustom = %d, %v", n, err)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	f := newFixture(t, scenarioBank(), remote, false)
	instructor := model.Learner{ID: "acc-1", AccountID: "acc-1", Instructor: true}

	broken := draftsOf(scenarioBank().Questions)
	broken = append(broken, model.Question{ID: "mcq-1", Domain: model.DomainTax, Difficulty: model.DifficultyEasy,
		Prompt: "dup", Explanation: "dup", Body: model.MCQ{Options: []string{"A"}, CorrectIndex: 3}}.Draft())

	var verr *bank.ValidationError
	_, err := f.banks.Publish(ctx, instructor, model.PublishBankRequest{Version: "v1", Questions: broken})
	if !errors.As(err, &verr) || len(verr.Problems) != 2 {
		t.Fatalf("err = %v, want two problems", err)
	}

	// Answer keys left out of the JSON must be reported, not published as zero values.
	var missingKeys model.PublishBankRequest
	raw := `{"version":"v0","questions":[
		{"id":"k-1","domain":"Tax Laws and Regulations","difficulty":"Easy","type":"mcq","prompt":"p","explanation":"e","options":["x","y"]},
		{"id":"k-2","domain":"Tax Laws and Regulations","difficulty":"Easy","type":"numeric","prompt":"p","explanation":"e"}]}`
	if err := json.Unmarshal([]byte(raw), &missingKeys); err != nil {
		t.Fatal(err)
	}
	_, err = f.banks.Publish(ctx, instructor, missingKeys)
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want a validation error", err)
	}
	for _, want := range []string{"correctIndex", "correctValue", "tolerance"} {
		if !strings.Contains(verr.Error(), want) {
			t.Errorf("problems %q do not mention %s", verr.Problems, want)
		}
	}
	if len(remote.published) != 0 {
		t.Fatalf("invalid bank was published")
	}

	v, err := f.banks.Publish(ctx, instructor, model.PublishBankRequest{Version: "v1", Questions: draftsOf(scenarioBank().Questions)})
	if err != nil {
		t.Fatal(err)
	}
	if v.QuestionCount != 2 || v.PublishedBy != "acc-1" || len(remote.published) != 1 {
		t.Fatalf("published %+v, remote has %d versions", v, len(remote.published))
	}

	noRemote := newFixture(t, scenarioBank(), nil, false)
	if _, err := noRemote.banks.Publish(ctx, instructor, model.PublishBankRequest{Version: "v1"}); !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("err = %v, want ErrRemoteUnavailable", err)
	}
}

func draftsOf(questions []model.Question) []model.QuestionDraft {
	out := make([]model.QuestionDraft, len(questions))
	for i, q := range questions {
		out[i] = q.Draft()
	}
	return out
}

func submitScenario(t *testing.T, f *fixture, learner model.Learner) *model.SessionReview {
	t.Helper()
	ctx := context.Background()

	paper, err := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{Count: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(paper.Questions) != 2 {
		t.Fatalf("paper has %d questions, want 2", len(paper.Questions))
	}

	f.now = f.now.Add(4 * time.Minute)
	review, err := f.sessions.Submit(ctx, learner, paper.SessionID, model.SubmitSessionRequest{
		Answers: map[string]model.TaggedAnswer{
			"mcq-1": {Answer: model.MCQAnswer{Value: intp(1)}},
			"num-1": {Answer: model.NumericAnswer{Value: floatp(100.4)}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return review
}

func TestSubmitScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	learner := model.Learner{ID: "anon-1"}

	review := submitScenario(t, f, learner)
	if review.Record.Score != 100 || !review.Passed {
		t.Fatalf("score = %d passed = %v", review.Record.Score, review.Passed)
	}
	if got := review.Record.DomainBreakdown[model.DomainTax]; got != (model.DomainScore{Correct: 2, Total: 2}) {
		t.Errorf("tax breakdown = %+v", got)
	}
	if review.Record.DurationMinutes != 4 || review.Record.Mode != model.SessionModePractice {
		t.Errorf("record = %+v", review.Record)
	}

	state := f.profile.Progress(ctx, learner.ID)
	if len(state.Attempts) != 1 {
		t.Fatalf("history has %d records", len(state.Attempts))
	}
	for _, id := range []string{"mcq-1", "num-1"} {
		if got := state.StatsByQuestion[id]; got.Seen != 1 || got.Correct != 1 || got.LastMissed != nil {
			t.Errorf("counter %s = %+v", id, got)
		}
	}

	if _, err := f.sessions.Submit(ctx, learner, review.Record.ID, model.SubmitSessionRequest{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second submit err = %v, want ErrSessionNotFound", err)
	}
}

func TestConcurrentSubmitRecordsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	learner := model.Learner{ID: "anon-race"}

	paper, err := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{Count: 2})
	if err != nil {
		t.Fatal(err)
	}

	const submitters = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		notFound int
	)
	for range submitters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessions.Submit(ctx, learner, paper.SessionID, model.SubmitSessionRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrSessionNotFound):
				notFound++
			default:
				t.Errorf("submit err = %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || notFound != submitters-1 {
		t.Fatalf("%d submits succeeded and %d were rejected, want 1 and %d", ok, notFound, submitters-1)
	}
	if got := len(f.profile.Progress(ctx, learner.ID).Attempts); got != 1 {
		t.Errorf("history has %d records, want 1", got)
	}
}

func TestSubmitMissingAnswersAndStudySet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	learner := model.Learner{ID: "anon-2"}

	paper, err := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{Count: 5})
	if err != nil {
		t.Fatal(err)
	}
	review, err := f.sessions.Submit(ctx, learner, paper.SessionID, model.SubmitSessionRequest{
		Answers:      map[string]model.TaggedAnswer{"mcq-1": {Answer: model.MCQAnswer{Value: intp(1)}}},
		Flagged:      []string{"mcq-1"},
		SaveStudySet: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if review.Record.Score != 50 || review.Passed {
		t.Fatalf("score = %d passed = %v, want 50 and failed", review.Record.Score, review.Passed)
	}

	byID := map[string]model.ReviewItem{}
	for _, it := range review.Items {
		byID[it.QuestionID] = it
	}
	if it := byID["num-1"]; it.Correct || it.Given != "No answer" || it.Expected != "100" {
		t.Errorf("num-1 review = %+v", it)
	}
	if it := byID["mcq-1"]; !it.Correct || !it.Flagged || it.Given != "B" {
		t.Errorf("mcq-1 review = %+v", it)
	}

	if set := f.profile.StudySet(ctx, learner.ID); len(set) != 2 {
		t.Fatalf("study set = %v, want wrong and flagged ids", set)
	}

	again, err := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{
		Mode: model.PracticeModeStudySet, Count: 10,
		Domains: []model.Domain{model.DomainEthics},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Questions) != 2 {
		t.Errorf("study-set practice has %d questions, want 2", len(again.Questions))
	}
	if set := f.profile.StudySet(ctx, learner.ID); len(set) != 0 {
		t.Errorf("study set not cleared: %v", set)
	}
}

func TestRepeatMissedPractice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	learner := model.Learner{ID: "anon-3"}

	paper, _ := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{Count: 2})
	if _, err := f.sessions.Submit(ctx, learner, paper.SessionID, model.SubmitSessionRequest{
		Answers: map[string]model.TaggedAnswer{"mcq-1": {Answer: model.MCQAnswer{Value: intp(1)}}},
	}); err != nil {
		t.Fatal(err)
	}

	missed, err := f.sessions.StartPractice(ctx, learner, model.StartPracticeRequest{Count: 5, RepeatMissed: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(missed.Questions) != 1 || missed.Questions[0].ID != "num-1" {
		t.Fatalf("repeat-missed paper = %+v", missed.Questions)
	}
}

func TestStartExamSeedReproducible(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, bank.MustCatalog(), nil, false)
	learner := model.Learner{ID: "anon-4"}

	a, err := f.sessions.StartExam(ctx, learner, model.StartExamRequest{Seed: "mock-1"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.sessions.StartExam(ctx, learner, model.StartExamRequest{Seed: "mock-1"})
	if err != nil {
		t.Fatal(err)
	}

	if len(a.Questions) != 30 || len(b.Questions) != 30 {
		t.Fatalf("papers have %d and %d questions", len(a.Questions), len(b.Questions))
	}
	if a.SessionID == b.SessionID {
		t.Error("sessions share an id")
	}
	for i := range a.Questions {
		if a.Questions[i].ID != b.Questions[i].ID {
			t.Fatalf("question %d differs: %s vs %s", i, a.Questions[i].ID, b.Questions[i].ID)
		}
	}
	if a.TimerMins != model.DefaultSettings().DefaultTimer {
		t.Errorf("timer = %d", a.TimerMins)
	}

	got, err := f.sessions.Get(ctx, learner, a.SessionID)
	if err != nil || len(got.Questions) != 30 {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := f.sessions.Abandon(ctx, learner, a.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.Get(ctx, learner, a.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after abandon err = %v", err)
	}
}

func TestSubmitMirrorsOnlySignedInCloudLearners(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	cloud := true

	anon := model.Learner{ID: "anon-5"}
	if _, err := f.settings.Update(ctx, anon.ID, model.UpdateSettingsRequest{CloudMode: &cloud}); err != nil {
		t.Fatal(err)
	}
	submitScenario(t, f, anon)

	member := model.Learner{ID: "acc-5", AccountID: "acc-5"}
	submitScenario(t, f, member)
	f.sessions.Wait()
	if len(f.enqueuer.tasks) != 0 {
		t.Fatalf("enqueued %d tasks without cloud mode on an account", len(f.enqueuer.tasks))
	}

	if _, err := f.settings.Update(ctx, member.ID, model.UpdateSettingsRequest{CloudMode: &cloud}); err != nil {
		t.Fatal(err)
	}
	submitScenario(t, f, member)
	f.sessions.Wait()

	if len(f.enqueuer.tasks) != 2 {
		t.Fatalf("enqueued %d tasks, want attempt and stats", len(f.enqueuer.tasks))
	}
	if f.enqueuer.tasks[0].Type != model.SyncTaskAttempt || f.enqueuer.tasks[1].Type != model.SyncTaskStats {
		t.Errorf("task types = %s, %s", f.enqueuer.tasks[0].Type, f.enqueuer.tasks[1].Type)
	}
	for _, task := range f.enqueuer.tasks {
		if task.LearnerID != member.ID || task.ID == "" || task.CreatedAt != f.now.UnixMilli() {
			t.Errorf("task = %+v", task)
		}
	}
}

func TestFlashcards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)

	if due := f.flashcards.Due(ctx, "learner", 0); len(due) != 2 {
		t.Fatalf("fresh deck has %d due cards, want 2", len(due))
	}
	if due := f.flashcards.Due(ctx, "learner", 1); len(due) != 1 || due[0].Answer != "B" {
		t.Fatalf("limited due = %+v", due)
	}

	entry, err := f.flashcards.Rate(ctx, "learner", "mcq-1", model.RatingEasy)
	if err != nil {
		t.Fatal(err)
	}
	if entry.IntervalDays != 2 || entry.Confidence != 2 || entry.TimesCorrect != 1 {
		t.Fatalf("entry = %+v", entry)
	}
	if !entry.NextDueAt.Equal(f.now.Add(48 * time.Hour)) {
		t.Errorf("next due = %v", entry.NextDueAt)
	}

	due := f.flashcards.Due(ctx, "learner", 0)
	if len(due) != 1 || due[0].Question.ID != "num-1" {
		t.Fatalf("due after rating = %+v", due)
	}
	stats := f.flashcards.Stats(ctx, "learner")
	if stats.Total != 2 || stats.Due != 1 || stats.Scheduled != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := f.flashcards.Rate(ctx, "learner", "ghost", model.RatingGood); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("rate unknown err = %v", err)
	}
	if _, err := f.flashcards.Rate(ctx, "learner", "mcq-1", "perfect"); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("rate invalid err = %v", err)
	}
	if err := f.flashcards.Reset(ctx, "learner", "num-1"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("reset unscheduled err = %v", err)
	}
	if err := f.flashcards.Reset(ctx, "learner", "mcq-1"); err != nil {
		t.Fatal(err)
	}
	if due := f.flashcards.Due(ctx, "learner", 0); len(due) != 2 {
		t.Errorf("due after reset = %d", len(due))
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)

	if got := f.settings.Get(ctx, "learner"); got != model.DefaultSettings() {
		t.Fatalf("defaults = %+v", got)
	}

	threshold := 80
	got, err := f.settings.Update(ctx, "learner", model.UpdateSettingsRequest{PassThreshold: &threshold})
	if err != nil {
		t.Fatal(err)
	}
	want := model.DefaultSettings()
	want.PassThreshold = 80
	if got != want || f.settings.Get(ctx, "learner") != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestDashboardAndWipe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioBank(), nil, false)
	learner := model.Learner{ID: "anon-6"}

	submitScenario(t, f, learner)
	if _, err := f.flashcards.Rate(ctx, learner.ID, "mcq-1", model.RatingGood); err != nil {
		t.Fatal(err)
	}

	d := f.progress.Dashboard(ctx, learner.ID)
	if d.Attempts != 1 || d.LastScore != 100 || d.Readiness != 100 || d.Streak != 1 || d.BankSize != 2 {
		t.Fatalf("dashboard = %+v", d)
	}
	if d.Deck.Scheduled != 1 {
		t.Errorf("deck = %+v", d.Deck)
	}
	if a := f.progress.Analytics(ctx, learner.ID); len(a.RecentScores) != 1 {
		t.Errorf("analytics recent scores = %v", a.RecentScores)
	}
	if h := f.progress.History(ctx, learner.ID, 10); len(h) != 1 {
		t.Errorf("history = %d records", len(h))
	}
	if recs, page := f.progress.HistoryPage(ctx, learner.ID, 2, 1); len(recs) != 0 || page.TotalItems != 1 || page.TotalPages != 1 {
		t.Errorf("page 2 = %d records, %+v", len(recs), page)
	}

	if err := f.progress.Wipe(ctx, learner.ID); err != nil {
		t.Fatal(err)
	}
	if d := f.progress.Dashboard(ctx, learner.ID); d.Attempts != 0 || d.Deck.Scheduled != 0 {
		t.Errorf("dashboard after wipe = %+v", d)
	}
}
