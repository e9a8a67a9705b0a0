package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/stemsi/exprep-backend/internal/model"
	"github.com/stemsi/exprep-backend/internal/response"
	"github.com/stemsi/exprep-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
	// ContextKeyLearner is the Gin context key for the resolved model.Learner.
	ContextKeyLearner = "learner"

	// HeaderLearnerID identifies an anonymous learner's profile.
	HeaderLearnerID = "X-Learner-ID"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenStr string) (*service.Claims, error)
}

// OptionalAuth resolves who the request acts for. A bearer token identifies an
// account; otherwise the X-Learner-ID header names an anonymous profile, and a
// request with neither gets a fresh id echoed back in that header. A bad token
// is rejected rather than downgraded to anonymous.
func OptionalAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			claims, ok := validate(c, auth, tokenStr)
			if !ok {
				return
			}
			c.Set(ContextKeyClaims, claims)
			c.Set(ContextKeyLearner, claims.Learner())
			c.Next()
			return
		}

		learnerID, ok := anonymousID(c, c.GetHeader(HeaderLearnerID))
		if !ok {
			return
		}
		c.Header(HeaderLearnerID, learnerID)
		c.Set(ContextKeyLearner, model.Learner{ID: learnerID})
		c.Next()
	}
}

// RequireAccount rejects anonymous learners. Use after OptionalAuth.
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetClaims(c) == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAccountRequired)
			return
		}
		c.Next()
	}
}

// RequireWSIdentity resolves the learner of a WebSocket upgrade from the
// ?token= or ?learner_id= query parameters, since browsers cannot set headers
// on the handshake.
func RequireWSIdentity(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := c.Query("token"); tokenStr != "" {
			claims, ok := validate(c, auth, tokenStr)
			if !ok {
				return
			}
			c.Set(ContextKeyClaims, claims)
			c.Set(ContextKeyLearner, claims.Learner())
			c.Next()
			return
		}

		raw := c.Query("learner_id")
		if raw == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		learnerID, ok := anonymousID(c, raw)
		if !ok {
			return
		}
		c.Set(ContextKeyLearner, model.Learner{ID: learnerID})
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context, or nil for
// anonymous learners.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetLearner returns the learner resolved by OptionalAuth or RequireWSIdentity.
func GetLearner(c *gin.Context) model.Learner {
	val, _ := c.Get(ContextKeyLearner)
	learner, _ := val.(model.Learner)
	return learner
}

func validate(c *gin.Context, auth TokenValidator, tokenStr string) (*service.Claims, bool) {
	claims, err := auth.ValidateToken(c.Request.Context(), tokenStr)
	switch {
	case err == nil:
		return claims, true
	case errors.Is(err, service.ErrTokenRevoked):
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRevoked)
	case errors.Is(err, jwt.ErrTokenExpired):
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenExpired)
	default:
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
	}
	return nil, false
}

// anonymousID normalizes a client-supplied learner id, issuing one when raw is
// empty.
func anonymousID(c *gin.Context, raw string) (string, bool) {
	if raw == "" {
		return uuid.NewString(), true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.AbortFail(c, http.StatusBadRequest, response.ErrInvalidLearnerID)
		return "", false
	}
	return id.String(), true
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
