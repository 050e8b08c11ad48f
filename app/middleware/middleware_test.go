package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shiftboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.Any("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":  c.GetString(UserIDKey),
			"trace": logger.TraceID(c.Request.Context()),
		})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine(AuthMiddleware("secret"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_DisabledWithoutKey(t *testing.T) {
	r := newEngine(AuthMiddleware(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIdentity(t *testing.T) {
	r := newEngine(Identity())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-User-ID", " worker-1 ")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user":"worker-1"`)
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"trace":"req-42"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL")
}

func TestLogger_KeepsBodyReadable(t *testing.T) {
	r := gin.New()
	r.Use(Logger())
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]interface{}
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{ "a" : 1 }`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":1}`, w.Body.String())
}

func TestCompressBody(t *testing.T) {
	assert.Equal(t, "", CompressBody(""))
	assert.Equal(t, `{"a":[1,2]}`, CompressBody("{\n  \"a\": [1, 2]\n}"))

	long := `{"k":"` + strings.Repeat("x", 2000) + `"}`
	out := CompressBody(long)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Len(t, out, maxLoggedBody+3)
}
