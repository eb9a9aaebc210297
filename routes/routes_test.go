package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kobaiko/carbculator/controllers"
	"github.com/Kobaiko/carbculator/middlewares"
	"github.com/Kobaiko/carbculator/utils"
)

const secret = "routes-secret"

func init() { gin.SetMode(gin.TestMode) }

type nopNotifier struct{ calls int }

func (n *nopNotifier) PushToUser(context.Context, uint, string, string, map[string]string) {
	n.calls++
}

func testRouter(dev *controllers.DevController) *gin.Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return SetupRouter(Handlers{Dev: dev}, Options{
		JWTSecret:   secret,
		Origins:     []string{"https://app.example.com"},
		AuthLimiter: middlewares.NewRateLimiter(2, 2, log),
		Log:         log,
	})
}

func TestAPIRequiresToken(t *testing.T) {
	r := testRouter(nil)
	for _, path := range []string{"/api/me", "/api/dashboard/today", "/api/food-entries", "/api/ws"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	r := testRouter(nil)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.9:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestDevRoutesOnlyWhenEnabled(t *testing.T) {
	tok, err := utils.GenerateJWT(3, "cy@example.com", secret, time.Hour)
	require.NoError(t, err)
	post := func(r *gin.Engine) int {
		req := httptest.NewRequest(http.MethodPost, "/api/dev/push", bytes.NewBufferString(`{}`))
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNotFound, post(testRouter(nil)))

	push := &nopNotifier{}
	assert.Equal(t, http.StatusOK, post(testRouter(controllers.NewDevController(push, nil))))
	assert.Equal(t, 1, push.calls)
}
