package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	claims *service.Claims
	err    error
}

func (f fakeValidator) ValidateToken(context.Context, string) (*service.Claims, error) {
	return f.claims, f.err
}

func learnerEcho(c *gin.Context) {
	l := GetLearner(c)
	c.String(http.StatusOK, "%s|%s|%t", l.ID, l.AccountID, l.Instructor)
}

func TestOptionalAuth(t *testing.T) {
	const anonID = "3f0c1d9e-7a55-4c1e-9f9b-2a7d8c6e5b41"
	accountClaims := &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acc-1"},
		Roles:            []string{model.RoleInstructor},
	}

	tests := []struct {
		name       string
		validator  fakeValidator
		header     map[string]string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "anonymous with learner id",
			header:     map[string]string{HeaderLearnerID: strings.ToUpper(anonID)},
			wantStatus: http.StatusOK,
			wantBody:   anonID + "||false",
		},
		{
			name:       "malformed learner id",
			header:     map[string]string{HeaderLearnerID: "not-a-uuid"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "valid token",
			validator:  fakeValidator{claims: accountClaims},
			header:     map[string]string{"Authorization": "Bearer abc"},
			wantStatus: http.StatusOK,
			wantBody:   "acc-1|acc-1|true",
		},
		{
			name:       "expired token is not downgraded",
			validator:  fakeValidator{err: fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)},
			header:     map[string]string{"Authorization": "Bearer abc", HeaderLearnerID: anonID},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "revoked token",
			validator:  fakeValidator{err: service.ErrTokenRevoked},
			header:     map[string]string{"Authorization": "bearer abc"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", OptionalAuth(tt.validator), learnerEcho)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOptionalAuthIssuesLearnerID(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuth(fakeValidator{}), learnerEcho)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	issued := w.Header().Get(HeaderLearnerID)
	if w.Code != http.StatusOK || issued == "" {
		t.Fatalf("status = %d, issued id = %q", w.Code, issued)
	}
	if !strings.HasPrefix(w.Body.String(), issued+"|") {
		t.Errorf("learner %q does not match issued id %q", w.Body.String(), issued)
	}
}

func TestRequireRole(t *testing.T) {
	learner := &service.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "s"}}
	admin := &service.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a"}, Roles: []string{model.RoleAdmin}}

	tests := []struct {
		name   string
		claims *service.Claims
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"no role", learner, http.StatusForbidden},
		{"admin", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) {
				if tt.claims != nil {
					c.Set(ContextKeyClaims, tt.claims)
				}
				c.Next()
			}, RequireRole(model.RoleInstructor, model.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireWSIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/ws", RequireWSIdentity(fakeValidator{err: errors.New("bad")}), learnerEcho)

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"?token=x", http.StatusUnauthorized},
		{"?learner_id=3f0c1d9e-7a55-4c1e-9f9b-2a7d8c6e5b41", http.StatusOK},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil))
		if w.Code != tt.want {
			t.Errorf("%q: status = %d, want %d", tt.query, w.Code, tt.want)
		}
	}
}

func TestRateLimiterAllow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, time.Minute)
	now := time.Now()

	for i := range 2 {
		if ok, _ := rl.allow("ip", now); !ok {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	ok, wait := rl.allow("ip", now.Add(10*time.Second))
	if ok || wait != 50*time.Second {
		t.Fatalf("third request ok = %v wait = %v", ok, wait)
	}
	if ok, _ := rl.allow("other", now); !ok {
		t.Error("separate key shares a bucket")
	}
	if ok, _ := rl.allow("ip", now.Add(time.Minute)); !ok {
		t.Error("bucket not refilled after interval")
	}
}

func TestBrotli(t *testing.T) {
	large := strings.Repeat("payroll ", 512)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusCreated, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated || w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("status = %d encoding = %q", w.Code, w.Header().Get("Content-Encoding"))
	}
	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil || string(body) != large {
		t.Fatalf("decoded %d bytes, err %v", len(body), err)
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("small body encoding = %q body = %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
}
