package middleware

import (
	"food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/config"
	"food_delivery/pkg/metrics"
	"food_delivery/pkg/utils"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.GlobalConfig.JWT.Secret = "middleware-test-secret-0123456789abcdef"
	config.GlobalConfig.JWT.Expire = 1
}

func newAuthRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUserID(c), "role": CurrentRole(c)})
	})
	r.GET("/me", handlers...)
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter()

	t.Run("missing header", func(t *testing.T) {
		w := doGet(r, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doGet(r, "/me", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := utils.GenerateToken("user-1", model.RoleCustomer)
		require.NoError(t, err)

		w := doGet(r, "/me", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user":"user-1"`)
		assert.Contains(t, w.Body.String(), `"role":1`)
	})
}

func TestRequireRoles(t *testing.T) {
	r := newAuthRouter(RequireRoles(model.RoleStoreOwner, model.RoleAdmin))

	customer, _, err := utils.GenerateToken("c", model.RoleCustomer)
	require.NoError(t, err)
	owner, _, err := utils.GenerateToken("o", model.RoleStoreOwner)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doGet(r, "/me", customer).Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/me", owner).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, doGet(r, "/ping", "").Code)
	assert.Equal(t, http.StatusOK, doGet(r, "/ping", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(r, "/ping", "").Code)

	assert.Equal(t, 0, limiter.Cleanup(time.Hour))
	assert.Equal(t, 1, limiter.Cleanup(0))
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/t", func(c *gin.Context) { c.String(http.StatusOK, TraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Trace-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Trace-ID"))

	w = doGet(r, "/t", "")
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestRecoveryAndMetrics(t *testing.T) {
	m := metrics.NewMetricsCollector(prometheus.NewRegistry())
	r := gin.New()
	r.Use(RecoveryMiddleware(), MetricsMiddleware(m))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := doGet(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}
