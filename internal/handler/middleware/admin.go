package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwtpkg "estatehub/bff/pkg/jwt"
	"estatehub/bff/pkg/response"
)

const ContextKeyOperatorID = "operator_id"

// AdminAuth lets through operators whose token subject is in adminUserIDs and
// stores the parsed id under ContextKeyOperatorID. Must run after JWTAuth.
func AdminAuth(adminUserIDs []string) gin.HandlerFunc {
	allowed := make(map[uuid.UUID]struct{}, len(adminUserIDs))
	for _, raw := range adminUserIDs {
		if id, err := uuid.Parse(raw); err == nil {
			allowed[id] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claims, ok := c.MustGet(ContextKeyUserClaims).(*jwtpkg.Claims)
		if !ok {
			response.Unauthorized(c, "invalid claims")
			c.Abort()
			return
		}

		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			response.Unauthorized(c, "invalid user id")
			c.Abort()
			return
		}
		if _, isAdmin := allowed[id]; !isAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}

		c.Set(ContextKeyOperatorID, id)
		c.Next()
	}
}
