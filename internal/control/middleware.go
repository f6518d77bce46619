package control

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// traceID stamps every request with a uuid, the way ManuGH-xg2g's daemon
// tags requests for correlation, and logs it alongside remote_user — an
// opaque string the core only ever logs, per spec §6, never interprets.
func traceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("trace_id", id)
		c.Header("X-Trace-Id", id)

		start := time.Now()
		c.Next()

		slog.Info("control request",
			"trace_id", id,
			"remote_user", c.GetHeader("X-Remote-User"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// negotiateFormat enforces spec §6's content-negotiation contract: only
// format=json (the default) is implemented. pb and debugpb are the wire
// forms this repo deliberately leaves out of scope — see SPEC_FULL.md's
// Non-goals — so they fail fast with 400 rather than being silently
// treated as json.
func negotiateFormat() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.DefaultQuery("format", "json")
		if format != "json" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  "invalid_request",
				"detail": "format " + format + " is not implemented; only json is supported",
			})
			return
		}
		c.Next()
	}
}
