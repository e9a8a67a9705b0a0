package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/bank"
	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/handler"
	"github.com/stemsi/exprep-backend/internal/middleware"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/service"
	"github.com/stemsi/exprep-backend/internal/store"
	"github.com/stemsi/exprep-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		return a, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Email == a.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccounts) TouchLogin(context.Context, uuid.UUID) error { return nil }

func testBank() bank.Bank {
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
				ID: "fill-1", Domain: model.DomainEthics, Difficulty: model.DifficultyHard,
				Prompt: "Say yes", Explanation: "Yes.",
				Body: model.Fill{CorrectAnswer: "yes"},
			},
		},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.Nop()
	cfg := &config.Config{
		GinMode:     gin.TestMode,
		StoreDriver: config.StoreDriverMemory,
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
		BcryptCost:  4,
		SessionTTL:  time.Hour,
	}

	kv := store.NewMemoryKV()
	profile := store.NewProfile(kv, log)
	syncService := service.NewSyncService(cfg, nil, log)
	authService := service.NewAuthService(cfg, &fakeAccounts{accounts: map[uuid.UUID]*model.Account{}}, kv, log)
	bankService := service.NewBankService(cfg, testBank(), nil, profile, log)
	sessionService := service.NewSessionService(cfg, bankService, profile, syncService, log)
	flashcardService := service.NewFlashcardService(bankService, profile, log)
	progressService := service.NewProgressService(bankService, flashcardService, profile, log)

	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Bank:      handler.NewBankHandler(bankService, log),
		Session:   handler.NewSessionHandler(sessionService, log),
		Flashcard: handler.NewFlashcardHandler(flashcardService),
		Progress:  handler.NewProgressHandler(progressService),
		Setting:   handler.NewSettingHandler(service.NewSettingService(profile, log)),
		Sync:      handler.NewSyncHandler(syncService, log, nil),
		System:    handler.NewSystemHandler(cfg, nil, nil, bankService, log),
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, authService, handlers, cfg)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code     string            `json:"code"`
		Fields   map[string]string `json:"fields"`
		Problems []string          `json:"problems"`
	} `json:"error"`
	Pagination *struct {
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type client struct {
	t         *testing.T
	srv       http.Handler
	learnerID string
	token     string
}

func (c *client) do(method, path string, body any) (int, envelope, http.Header) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.learnerID != "" {
		req.Header.Set(middleware.HeaderLearnerID, c.learnerID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, env, rec.Header()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t)}
	code, env, _ := c.do(http.MethodGet, "/health", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	h := decode[map[string]string](t, env.Data)
	if h["status"] != "ok" || h["store_driver"] != config.StoreDriverMemory || h["database"] != "disabled" {
		t.Errorf("health = %v", h)
	}
}

func TestAnonymousLearnerIDIsIssuedAndScopesData(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, srv: srv}

	code, env, header := c.do(http.MethodPost, "/api/v1/sessions/practice", gin.H{"count": 2})
	if code != http.StatusCreated {
		t.Fatalf("status = %d, error = %+v", code, env.Error)
	}
	issued := header.Get(middleware.HeaderLearnerID)
	if _, err := uuid.Parse(issued); err != nil {
		t.Fatalf("issued learner id %q: %v", issued, err)
	}
	paper := decode[model.SessionPaper](t, env.Data)

	c.learnerID = issued
	if code, _, _ := c.do(http.MethodGet, "/api/v1/sessions/"+paper.SessionID, nil); code != http.StatusOK {
		t.Errorf("own session status = %d", code)
	}

	other := &client{t: t, srv: srv, learnerID: uuid.NewString()}
	if code, env, _ := other.do(http.MethodGet, "/api/v1/sessions/"+paper.SessionID, nil); code != http.StatusNotFound || env.Error.Code != "SESSION_NOT_FOUND" {
		t.Errorf("foreign session status = %d, error = %+v", code, env.Error)
	}

	bad := &client{t: t, srv: srv, learnerID: "not-a-uuid"}
	if code, _, _ := bad.do(http.MethodGet, "/api/v1/settings", nil); code != http.StatusBadRequest {
		t.Errorf("malformed learner id status = %d", code)
	}
}

func TestPracticeSubmitAndHistory(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t), learnerID: uuid.NewString()}

	code, env, _ := c.do(http.MethodPost, "/api/v1/sessions/practice", gin.H{"count": 5})
	if code != http.StatusCreated {
		t.Fatalf("start status = %d, error = %+v", code, env.Error)
	}
	paper := decode[model.SessionPaper](t, env.Data)
	if len(paper.Questions) != 2 {
		t.Fatalf("paper has %d questions, want the whole bank", len(paper.Questions))
	}

	answers := gin.H{
		"mcq-1":  gin.H{"type": "mcq", "value": 1},
		"fill-1": gin.H{"type": "fill", "value": "  YES "},
	}
	code, env, _ = c.do(http.MethodPost, "/api/v1/sessions/"+paper.SessionID+"/submit", gin.H{"answers": answers})
	if code != http.StatusOK {
		t.Fatalf("submit status = %d, error = %+v", code, env.Error)
	}
	review := decode[model.SessionReview](t, env.Data)
	if review.Record.Score != 100 || !review.Passed || len(review.Items) != 2 {
		t.Errorf("review = %+v", review)
	}

	if code, _, _ := c.do(http.MethodPost, "/api/v1/sessions/"+paper.SessionID+"/submit", gin.H{}); code != http.StatusNotFound {
		t.Errorf("resubmit status = %d", code)
	}

	code, env, _ = c.do(http.MethodGet, "/api/v1/progress/history?page=1&per_page=10", nil)
	if code != http.StatusOK || env.Pagination == nil || env.Pagination.TotalItems != 1 {
		t.Fatalf("history status = %d, pagination = %+v", code, env.Pagination)
	}

	code, env, _ = c.do(http.MethodGet, "/api/v1/progress/dashboard", nil)
	dash := decode[map[string]any](t, env.Data)
	if code != http.StatusOK || dash["bank_size"] != float64(2) {
		t.Errorf("dashboard status = %d, body = %v", code, dash)
	}

	if code, _, _ := c.do(http.MethodDelete, "/api/v1/progress", nil); code != http.StatusOK {
		t.Errorf("wipe status = %d", code)
	}
	_, env, _ = c.do(http.MethodGet, "/api/v1/progress/history", nil)
	if env.Pagination.TotalItems != 0 {
		t.Errorf("history after wipe = %d", env.Pagination.TotalItems)
	}
}

func TestPracticeRejectsUnknownDomain(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t), learnerID: uuid.NewString()}
	code, env, _ := c.do(http.MethodPost, "/api/v1/sessions/practice", gin.H{
		"count":   3,
		"domains": []string{"Astrology"},
	})
	if code != http.StatusBadRequest || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("status = %d, error = %+v", code, env.Error)
	}
}

func TestSettingsAndAuthoring(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t), learnerID: uuid.NewString()}

	draft := gin.H{
		"id": "my-1", "domain": string(model.DomainCompliance), "difficulty": "Easy",
		"type": "fill", "prompt": "Form?", "explanation": "W-2.", "correctAnswer": "W-2",
	}
	if code, env, _ := c.do(http.MethodPut, "/api/v1/bank/custom", draft); code != http.StatusForbidden || env.Error.Code != "AUTHOR_MODE_OFF" {
		t.Fatalf("author mode off: status = %d, error = %+v", code, env.Error)
	}

	if code, env, _ := c.do(http.MethodPatch, "/api/v1/settings", gin.H{"fontScale": 3}); code != http.StatusBadRequest {
		t.Errorf("font scale 3: status = %d, error = %+v", code, env.Error)
	}
	code, env, _ := c.do(http.MethodPatch, "/api/v1/settings", gin.H{"authorMode": true})
	if code != http.StatusOK {
		t.Fatalf("enable author mode: status = %d", code)
	}
	settings := decode[struct{ Settings model.Settings }](t, env.Data).Settings
	if !settings.AuthorMode || settings.PassThreshold != 70 {
		t.Errorf("settings = %+v", settings)
	}

	if code, env, _ := c.do(http.MethodPut, "/api/v1/bank/custom", draft); code != http.StatusOK {
		t.Fatalf("upsert status = %d, error = %+v", code, env.Error)
	}

	broken := gin.H{"id": "my-2", "domain": string(model.DomainTax), "difficulty": "Easy", "type": "mcq", "prompt": "?", "explanation": "!", "options": []string{"only"}}
	code, env, _ = c.do(http.MethodPost, "/api/v1/bank/custom/import", gin.H{"questions": []gin.H{broken}})
	if code != http.StatusUnprocessableEntity || len(env.Error.Problems) == 0 {
		t.Fatalf("import status = %d, error = %+v", code, env.Error)
	}

	_, env, _ = c.do(http.MethodGet, "/api/v1/bank", nil)
	summary := decode[model.BankSummary](t, env.Data)
	if summary.Total != 3 || summary.Custom != 1 {
		t.Errorf("summary = %+v", summary)
	}

	if code, _, _ := c.do(http.MethodDelete, "/api/v1/bank/custom/my-1", nil); code != http.StatusOK {
		t.Errorf("delete status = %d", code)
	}
	if code, _, _ := c.do(http.MethodDelete, "/api/v1/bank/custom/my-1", nil); code != http.StatusNotFound {
		t.Errorf("second delete status = %d", code)
	}
}

func TestFlashcardRoutes(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t), learnerID: uuid.NewString()}

	code, env, _ := c.do(http.MethodGet, "/api/v1/flashcards/due?limit=1", nil)
	cards := decode[struct{ Cards []model.FlashcardCard }](t, env.Data).Cards
	if code != http.StatusOK || len(cards) != 1 || cards[0].Answer == "" {
		t.Fatalf("due status = %d, cards = %+v", code, cards)
	}

	if code, _, _ := c.do(http.MethodGet, "/api/v1/flashcards/due?limit=-1", nil); code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", code)
	}
	if code, _, _ := c.do(http.MethodPost, "/api/v1/flashcards/nope/rate", gin.H{"rating": "good"}); code != http.StatusNotFound {
		t.Errorf("unknown card status = %d", code)
	}
	if code, _, _ := c.do(http.MethodPost, "/api/v1/flashcards/mcq-1/rate", gin.H{"rating": "meh"}); code != http.StatusBadRequest {
		t.Errorf("bad rating status = %d", code)
	}
	if code, _, _ := c.do(http.MethodPost, "/api/v1/flashcards/mcq-1/rate", gin.H{"rating": "easy"}); code != http.StatusOK {
		t.Errorf("rate status = %d", code)
	}

	_, env, _ = c.do(http.MethodGet, "/api/v1/flashcards/stats", nil)
	if stats := decode[model.DeckStats](t, env.Data); stats.Scheduled != 1 || stats.Total != 2 {
		t.Errorf("stats = %+v", stats)
	}

	if code, _, _ := c.do(http.MethodDelete, "/api/v1/flashcards", nil); code != http.StatusOK {
		t.Errorf("reset all status = %d", code)
	}
	if code, _, _ := c.do(http.MethodDelete, "/api/v1/flashcards/mcq-1", nil); code != http.StatusNotFound {
		t.Errorf("reset unscheduled status = %d", code)
	}
}

func TestAccountFlow(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, srv: srv}

	body := gin.H{"email": "ana@example.com", "display_name": "Ana", "password": "correct-horse"}
	code, env, _ := c.do(http.MethodPost, "/api/v1/auth/register", body)
	if code != http.StatusCreated {
		t.Fatalf("register status = %d, error = %+v", code, env.Error)
	}
	if code, _, _ := c.do(http.MethodPost, "/api/v1/auth/register", body); code != http.StatusConflict {
		t.Errorf("duplicate register status = %d", code)
	}

	if code, _, _ := c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ana@example.com", "password": "wrong-pass"}); code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", code)
	}
	code, env, _ = c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "ana@example.com", "password": "correct-horse"})
	if code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	c.token = decode[model.LoginResponse](t, env.Data).Token

	if code, _, _ := c.do(http.MethodGet, "/api/v1/auth/me", nil); code != http.StatusOK {
		t.Errorf("me status = %d", code)
	}
	if code, _, _ := c.do(http.MethodGet, "/api/v1/sync/status", nil); code != http.StatusOK {
		t.Errorf("sync status = %d", code)
	}
	if code, _, _ := c.do(http.MethodPost, "/api/v1/instructor/bank/versions", gin.H{"version": "v1"}); code != http.StatusForbidden {
		t.Errorf("publish without role status = %d", code)
	}
	if code, _, _ := c.do(http.MethodGet, "/api/v1/admin/system/metrics", nil); code != http.StatusForbidden {
		t.Errorf("metrics without role status = %d", code)
	}

	if code, _, _ := c.do(http.MethodPost, "/api/v1/auth/logout", nil); code != http.StatusOK {
		t.Fatalf("logout status = %d", code)
	}
	if code, env, _ := c.do(http.MethodGet, "/api/v1/auth/me", nil); code != http.StatusUnauthorized || env.Error.Code != "TOKEN_REVOKED" {
		t.Errorf("me after logout status = %d, error = %+v", code, env.Error)
	}

	anon := &client{t: t, srv: srv, learnerID: uuid.NewString()}
	if code, _, _ := anon.do(http.MethodGet, "/api/v1/auth/me", nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous me status = %d", code)
	}
}
