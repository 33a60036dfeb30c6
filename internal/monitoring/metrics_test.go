package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/v1/recipes", func(c *gin.Context) {
		c.Set("tenantSlug", "demo")
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/recipes", "GET", "200", "demo"))
	assert.Equal(t, 3.0, got)
}

func TestGinMiddlewareUnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.GinMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", "GET", "404", "none"))
	assert.Equal(t, 1.0, got)
}

func TestLockConflictCounter(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.LockConflicts.WithLabelValues("demo").Inc()
	m.LockConflicts.WithLabelValues("demo").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LockConflicts.WithLabelValues("demo")))
}
