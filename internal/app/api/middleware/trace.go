package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fatflowers/caterpay/pkg/logctx"
	"github.com/fatflowers/caterpay/pkg/tool"
)

// TraceMiddleware adds a trace ID to the request.
// It reads X-Request-ID if provided by the client; otherwise generates a UUIDv7.
// The trace ID is stored in gin.Context (key: logctx.TraceIDKey) and the request context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set(logctx.TraceIDKey, traceID)
		c.Request = c.Request.WithContext(logctx.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}
