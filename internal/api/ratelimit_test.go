package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.Middleware("/health"))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health", Health)
	return router
}

func doRequest(router http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	t.Run("fixed window resets after the window", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		rl := NewRateLimiter(3, time.Minute, nil)
		rl.now = clock.now
		router := newLimitedRouter(rl)

		for i := 0; i < 3; i++ {
			w := doRequest(router, "/test", "10.0.0.1:1234")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "3", w.Header().Get("RateLimit-Limit"))
		}
		w := doRequest(router, "/test", "10.0.0.1:1234")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))

		clock.t = clock.t.Add(59 * time.Second)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "/test", "10.0.0.1:1234").Code)

		clock.t = clock.t.Add(time.Second)
		w = doRequest(router, "/test", "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("RateLimit-Remaining"))
	})

	t.Run("different clients have separate budgets", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute, nil)
		router := newLimitedRouter(rl)

		assert.Equal(t, http.StatusOK, doRequest(router, "/test", "10.0.0.1:1234").Code)
		assert.Equal(t, http.StatusOK, doRequest(router, "/test", "10.0.0.2:1234").Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "/test", "10.0.0.1:1234").Code)
	})

	t.Run("skipped paths are not counted", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute, nil)
		router := newLimitedRouter(rl)

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, doRequest(router, "/health", "10.0.0.3:1234").Code)
		}
		assert.Equal(t, http.StatusOK, doRequest(router, "/test", "10.0.0.3:1234").Code)
	})

	t.Run("expired clients are swept", func(t *testing.T) {
		clock := &fakeClock{t: time.Unix(1700000000, 0)}
		rl := NewRateLimiter(1, time.Minute, nil)
		rl.now = clock.now

		rl.allow("a")
		rl.allow("b")
		clock.t = clock.t.Add(2 * time.Minute)
		rl.allow("c")

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Len(t, rl.clients, 1)
	})
}
