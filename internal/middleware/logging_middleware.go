package middleware

import (
	"time"

	"github.com/annel0/rts-pathing/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader - заголовок с ID запроса
const RequestIDHeader = "X-Request-ID"

// RequestLogger снабжает каждый HTTP-запрос ID и пишет краткие логи
type RequestLogger struct {
	log *logging.Logger
}

// NewRequestLogger создаёт middleware; nil означает логгер по умолчанию
func NewRequestLogger(l *logging.Logger) *RequestLogger {
	return &RequestLogger{log: l}
}

func (rl *RequestLogger) logf(format string, args ...interface{}) {
	if rl.log == nil {
		logging.Debug(format, args...)
		return
	}
	rl.log.Debug(format, args...)
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rl.logf("[HTTP] ▶ %s %s ip=%s id=%s", method, path, c.ClientIP(), requestID)

		c.Next()

		rl.logf("[HTTP] ◀ %s %s %d %s id=%s", method, path, c.Writer.Status(), time.Since(start), requestID)
	}
}
