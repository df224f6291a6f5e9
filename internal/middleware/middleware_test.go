package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blues/propdao/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(r *gin.Engine, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/vote", NewRateLimiter(0.001, 2).Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote", "10.0.0.1:1000").Code)
	rec := serve(r, http.MethodPost, "/vote", "10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// 其他客户端不受影响
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote", "10.0.0.2:1000").Code)
}

func TestRateLimiterKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.POST("/vote", func(c *gin.Context) {
		auth.SetClaims(c, &auth.Claims{Subject: c.Query("user")})
		c.Next()
	}, limiter.Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote?user=a", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote?user=b", "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/vote?user=a", "10.0.0.1:1").Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/vote", NewRateLimiter(0, 0).Handler(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/vote", "10.0.0.1:1").Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, http.MethodOptions, "/x", "10.0.0.1:1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := serve(r, http.MethodGet, "/boom", "10.0.0.1:1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "服务器内部错误")
}
