package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kobaiko/carbculator/utils"
)

const testSecret = "middleware-secret"

func init() { gin.SetMode(gin.TestMode) }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint("userID"), "email": c.GetString("email")})
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), whoami)

	tok, err := utils.GenerateJWT(9, "bo@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		code   int
	}{
		{"bearer header", "/me", "Bearer " + tok, http.StatusOK},
		{"query token", "/me?access_token=" + tok, "", http.StatusOK},
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + tok, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.JSONEq(t, `{"user_id":9,"email":"bo@example.com"}`, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareWithoutSecret(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(""), whoami)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2, quietLogger())
	r := gin.New()
	r.POST("/analyze", func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Next()
	}, rl.Middleware(ByUser), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	assert.True(t, rl.Allow("user:2"), "other keys have their own bucket")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1, quietLogger())
	rl.Allow("ip:1.2.3.4")
	rl.Cleanup(time.Hour)
	assert.Len(t, rl.limiters, 1)

	rl.limiters["ip:1.2.3.4"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.Cleanup(time.Hour)
	assert.Empty(t, rl.limiters)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(quietLogger()), Metrics(), SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	rid := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, rid)
	assert.Equal(t, rid, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
