package response

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/workconnect/session/pkg/errors"
	"github.com/gin-gonic/gin"
)

// Success sends a successful JSON response. The backend returns bare bodies,
// not an envelope.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error JSON response in the backend error shape
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		appErr = apperrors.ErrInternal
	}
	Abort(c, appErr)
}

// Abort writes appErr stamped with the request path and aborts the chain.
func Abort(c *gin.Context, appErr *apperrors.AppError) {
	out := *appErr
	out.Path = c.Request.URL.Path
	out.Timestamp = time.Now().UTC().Format(time.RFC3339)
	if traceID, ok := c.Get("trace_id"); ok {
		out.TraceID, _ = traceID.(string)
	}
	c.AbortWithStatusJSON(out.Status, &out)
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, message string) {
	Abort(c, apperrors.NewAppError(apperrors.CodeValidationError, message, http.StatusBadRequest))
}
