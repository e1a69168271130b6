package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func limitedRouter(rps float64, burst, size int, ttl time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(NewHTTPRateLimitPerIP(rps, burst, size, ttl))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func get(r http.Handler, addr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHTTPRateLimitPerIP_Basic(t *testing.T) {
	r := limitedRouter(1, 1, 100, time.Hour)

	require.Equal(t, http.StatusOK, get(r, "1.2.3.4:12345"))
	require.Equal(t, http.StatusTooManyRequests, get(r, "1.2.3.4:12345"))
	// same host, different source port
	require.Equal(t, http.StatusTooManyRequests, get(r, "1.2.3.4:23456"))
}

func TestHTTPRateLimitPerIP_DifferentHosts(t *testing.T) {
	r := limitedRouter(1, 1, 100, time.Hour)

	require.Equal(t, http.StatusOK, get(r, "10.0.0.1:1111"))
	require.Equal(t, http.StatusOK, get(r, "10.0.0.2:2222"))
}

func TestHTTPRateLimitPerIP_TTL_Evicts(t *testing.T) {
	ttl := 15 * time.Millisecond
	r := limitedRouter(0.001, 1, 10, ttl)

	require.Equal(t, http.StatusOK, get(r, "127.0.0.1:5555"))
	require.Equal(t, http.StatusTooManyRequests, get(r, "127.0.0.1:5555"))
	time.Sleep(ttl + 10*time.Millisecond)
	require.Equal(t, http.StatusOK, get(r, "127.0.0.1:5555"))
}
