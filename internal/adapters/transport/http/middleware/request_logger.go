package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// scrub hides credentials before headers reach the log.
func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}

// RequestLogger logs every request with a request id, reusing the caller's
// X-Request-ID when present. Bodies are never logged.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" || len(reqID) > 64 {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		l := log.With(
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		l.Debug("incoming request",
			zap.String("origin", c.GetHeader("Origin")),
			zap.Any("hdr", scrub(c.Request.Header)),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		if c.IsAborted() && respStatus < http.StatusInternalServerError {
			l.Warn("aborted", zap.Int("status", respStatus), zap.Duration("latency", latency))
			return
		}

		for _, e := range c.Errors {
			l.Error("handler error", zap.Int("status", respStatus), zap.Error(e.Err))
		}

		l.Info("completed", zap.Int("status", respStatus), zap.Duration("latency", latency))
	}
}
