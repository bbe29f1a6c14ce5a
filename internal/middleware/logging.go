package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"basal-backend-go/pkg/log"
)

// RequestLogger logs one structured line per request. Bodies are not logged;
// uploads and chat content would bloat the log and leak user data.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		log.Infow("http request",
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
	}
}
