package middleware

import (
	"github.com/gin-gonic/gin"
	apperrors "github.com/workconnect/session/pkg/errors"
	"github.com/workconnect/session/pkg/response"
	"go.uber.org/zap"
)

// Recovery creates a panic recovery middleware
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("trace_id", c.GetString("trace_id")),
				)

				response.Abort(c, apperrors.ErrInternal)
			}
		}()

		c.Next()
	}
}
