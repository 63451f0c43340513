package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPLogger logs one line per finished request.
func HTTPLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.InfoContext(c.Request.Context(),
			fmt.Sprintf("http: %s %s", c.Request.Method, c.FullPath()),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
