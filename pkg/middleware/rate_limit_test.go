package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ovalline/pitwall/pkg/metrics"
)

// requestFrom builds a request with a fixed client address so each test gets
// its own limiter bucket.
func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest("GET", "/ok", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.1.0.1:5000"))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.1:5001"))

	require.Equal(t, http.StatusOK, w1.Code)
	require.Equal(t, http.StatusOK, w2.Code)

	// verify metrics incremented for memory limiter
	after := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	require.Equal(t, 2.0, after-before)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// one token every 500ms, bucket of one
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.1.0.2:5000"))
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.2:5001"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))

	// after the bucket replenishes one token the request goes through again
	time.Sleep(700 * time.Millisecond)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.1.0.2:5002"))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_SeparateClients(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// exhaust the first client's bucket
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.1.0.3:5000"))
	require.Equal(t, http.StatusOK, w1.Code)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.1.0.3:5001"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// a different client is unaffected
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.1.0.4:5000"))
	require.Equal(t, http.StatusOK, w3.Code)
}
