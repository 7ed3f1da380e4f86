package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(perWindow int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(perWindow, window)
	limiter.now = clock.Now
	return limiter, clock
}

func TestRateLimiter(t *testing.T) {
	t.Run("allows a burst up to the limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client1"))
	})

	t.Run("separate buckets per client", func(t *testing.T) {
		limiter, _ := newTestLimiter(1, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter, clock := newTestLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		clock.Advance(30 * time.Second)
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))
	})

	t.Run("remaining reflects consumption", func(t *testing.T) {
		limiter, _ := newTestLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("client4"))
		limiter.Allow("client4")
		limiter.Allow("client4")
		assert.Equal(t, 3, limiter.Remaining("client4"))
	})

	t.Run("forgets idle clients", func(t *testing.T) {
		limiter, clock := newTestLimiter(1, time.Minute)

		limiter.Allow("idle")
		clock.Advance(3 * time.Minute)
		limiter.Allow("active")

		limiter.mu.Lock()
		_, idleKept := limiter.visitors["idle"]
		limiter.mu.Unlock()
		assert.False(t, idleKept)
	})

	t.Run("concurrent use", func(t *testing.T) {
		limiter, _ := newTestLimiter(50, time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newTestLimiter(2, time.Minute)

	router := gin.New()
	router.Use(RequestID(), RateLimit(limiter))
	router.POST("/sync", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sync", nil)
		req.RemoteAddr = "10.0.0.8:5555"
		req.Header.Set("X-Request-ID", "req-rl")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusAccepted, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "30", blocked.Header().Get("Retry-After"))
	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "RATE_LIMITED", "message": "Too many requests. Please try again later."},
		"request_id": "req-rl"
	}`, blocked.Body.String())
}

func TestRateLimitByKey(t *testing.T) {
	limiter, _ := newTestLimiter(1, time.Minute)

	router := gin.New()
	router.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.Param("id")
	}))
	router.POST("/courses/:id/sync", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses/1/sync", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses/1/sync", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses/2/sync", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
