package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/exprep-backend/internal/config"
	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/store"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTokenRevoked       = errors.New("token revoked")
)

// AccountStore is the account persistence AuthService needs.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	Create(ctx context.Context, a *model.Account) error
	TouchLogin(ctx context.Context, id uuid.UUID) error
}

// Claims extends JWT standard claims with the account's role flags.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the token carries role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Learner converts the claims into the learner identity used by services.
func (c *Claims) Learner() model.Learner {
	return model.Learner{
		ID:         c.Subject,
		AccountID:  c.Subject,
		Instructor: c.HasRole(model.RoleInstructor),
		Admin:      c.HasRole(model.RoleAdmin),
	}
}

// AuthService handles registration, login and JWT issuance. Accounts are
// optional: nothing else in the API requires one.
type AuthService struct {
	cfg      *config.Config
	accounts AccountStore
	kv       store.KV
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService. kv holds revoked token ids.
func NewAuthService(cfg *config.Config, accounts AccountStore, kv store.KV, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		accounts: accounts,
		kv:       kv,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates a learner account without roles and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.LoginResponse, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		Email:        strings.TrimSpace(req.Email),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info().Str("account_id", account.ID.String()).Msg("Account registered")
	return s.signIn(account)
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if err := s.CheckPassword(account.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	if err := s.accounts.TouchLogin(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID.String()).Msg("failed to record login time")
	}
	return s.signIn(account)
}

// Me returns the account behind a learner identity.
func (s *AuthService) Me(ctx context.Context, learner model.Learner) (*model.Account, error) {
	id, err := uuid.Parse(learner.AccountID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.accounts.GetByID(ctx, id)
}

func (s *AuthService) signIn(account *model.Account) (*model.LoginResponse, error) {
	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, Account: *account}, nil
}

// GenerateToken creates a JWT whose subject is the account id.
func (s *AuthService) GenerateToken(account *model.Account) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Roles: account.Roles(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if _, err := s.kv.Get(ctx, config.CacheKey.RevokedTokenKey(claims.ID)); err == nil {
		return nil, ErrTokenRevoked
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Err(err).Msg("revocation lookup failed, accepting token")
	}
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.kv.Set(ctx, config.CacheKey.RevokedTokenKey(claims.ID), []byte(`true`), ttl)
}
