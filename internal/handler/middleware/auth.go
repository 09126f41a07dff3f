package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	jwtpkg "estatehub/bff/pkg/jwt"
	"estatehub/bff/pkg/response"
)

const ContextKeyUserClaims = "user_claims"

// JWTAuth accepts only admin tokens issued by jwtManager.
func JWTAuth(jwtManager *jwtpkg.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "missing or malformed bearer token")
			c.Abort()
			return
		}

		claims, err := jwtManager.Validate(token)
		if err != nil || claims.TokenType != jwtpkg.TokenTypeAdmin {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}
