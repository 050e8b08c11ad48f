package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"shiftboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/pretty"
)

const maxLoggedBody = 1000

// Logger access log with the compacted request body of write requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		var bodyStr string
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			bodyStr = getRequestBody(c)
		}

		c.Next()

		// Skip logging for 404 requests
		if c.Writer.Status() == http.StatusNotFound {
			return
		}

		latency := time.Since(startTime)
		ctx := c.Request.Context()
		if bodyStr != "" {
			logger.InfoCtx(ctx, "[GIN] %3d | %13v | %15s | %s | %s | user=%s | body=%s",
				c.Writer.Status(), latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI, c.GetString(UserIDKey), bodyStr)
			return
		}
		logger.InfoCtx(ctx, "[GIN] %3d | %13v | %15s | %s | %s | user=%s",
			c.Writer.Status(), latency, c.ClientIP(), c.Request.Method, c.Request.RequestURI, c.GetString(UserIDKey))
	}
}

// getRequestBody gets request body content
func getRequestBody(c *gin.Context) string {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
		// Reset request body since reading it clears it
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	}
	return CompressBody(string(bodyBytes))
}

// CompressBody compresses JSON using pretty package
func CompressBody(body string) string {
	if len(body) == 0 {
		return ""
	}

	// ugly removes all whitespace
	compressed := pretty.Ugly([]byte(body))
	if len(compressed) > maxLoggedBody {
		return string(compressed[:maxLoggedBody]) + "..."
	}
	return string(compressed)
}
