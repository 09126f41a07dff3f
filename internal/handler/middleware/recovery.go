package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estatehub/bff/pkg/response"
)

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
				)
				if !c.Writer.Written() {
					response.InternalError(c, "internal server error")
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
