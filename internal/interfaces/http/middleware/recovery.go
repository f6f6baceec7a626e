package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logging.FromContext(c.Request.Context(), log).Error("panic recovered",
					logging.String("path", c.Request.URL.Path),
					logging.String("panic", fmt.Sprint(r)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"code":       errors.ErrCodeInternal.String(),
						"message":    "internal server error",
						"request_id": GetRequestID(c),
					},
				})
			}
		}()
		c.Next()
	}
}
