package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estatehub/bff/pkg/response"
)

const ContextKeySession = "session_id"

// Session requires the :session path parameter to be a visitor session id
// issued by POST /api/v1/sessions.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("session"))
		if err != nil {
			response.BadRequest(c, "invalid session id")
			c.Abort()
			return
		}
		c.Set(ContextKeySession, id.String())
		c.Next()
	}
}
