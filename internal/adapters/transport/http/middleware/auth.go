package middleware

import (
	"net/http"
	"strings"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
)

const claimsKey = "auth.claims"

type TokenVerifier interface {
	Verify(raw string) (model.Claims, error)
}

// RequireBearer rejects requests without a valid "Authorization: Bearer"
// token and stores the token's claims on the context.
func RequireBearer(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequireBearer.
func ClaimsFrom(c *gin.Context) (model.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return model.Claims{}, false
	}
	claims, ok := v.(model.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
