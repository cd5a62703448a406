package middleware

import (
	"github.com/gin-gonic/gin"

	"volunteer_platform/pkg/errors"
	"volunteer_platform/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		statusCode := errors.HTTPStatusFromError(err.Err)

		message := err.Error()
		if statusCode >= 500 {
			log.Error("Request failed", "error", err.Err, "path", c.FullPath())
			message = errors.ErrInternalServer.Error()
		}

		c.JSON(statusCode, errors.NewAPIError(message, statusCode))
	}
}
