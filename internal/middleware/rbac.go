package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/exprep-backend/internal/response"
)

// RequireRole checks that the account token carries at least one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAccountRequired)
			return
		}

		if slices.ContainsFunc(roles, claims.HasRole) {
			c.Next()
			return
		}

		response.AbortFail(c, http.StatusForbidden, response.ErrInstructorOnly)
	}
}
