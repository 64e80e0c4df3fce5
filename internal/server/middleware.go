package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sanctuary/internal/logging"
)

const (
	headerRequestID = "X-Request-ID"
	ctxLoggerKey    = "sanctuary.logger"
)

// requestID assigns every request a correlation ID and a request-scoped
// logger, then logs and audits the finished request.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, id)

		log := logging.WithRequestID(logging.CategoryHTTP, id)
		c.Set(ctxLoggerKey, log)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start)
		path := c.Request.URL.Path
		if status >= http.StatusInternalServerError {
			log.Error("%s %s -> %d (%v) %s", c.Request.Method, path, status, elapsed, c.Errors.String())
		} else {
			logging.Get(logging.CategoryHTTP).StructuredLog("info", "request", map[string]interface{}{
				"req":    id,
				"method": c.Request.Method,
				"path":   path,
				"status": status,
				"ms":     elapsed.Milliseconds(),
			})
		}
		logging.AuditWithRequest(id).Request(c.Request.Method, path, status, elapsed.Milliseconds())
	}
}

// requestLogger returns the logger installed by requestID.
func requestLogger(c *gin.Context) *logging.RequestLogger {
	if v, ok := c.Get(ctxLoggerKey); ok {
		if l, ok := v.(*logging.RequestLogger); ok {
			return l
		}
	}
	return logging.WithRequestID(logging.CategoryHTTP, "-")
}

// crossOrigin answers preflight requests and sets CORS headers for the
// configured origins. "*" allows any origin.
func crossOrigin(origins []string) gin.HandlerFunc {
	anyOrigin := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			anyOrigin = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		h := c.Writer.Header()
		switch {
		case anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		h.Set("Access-Control-Expose-Headers", headerRequestID)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// maxBody caps request bodies at n bytes.
func maxBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
