package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rate int, interval time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(rate, interval).Middleware())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	r := newLimitedRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := doRequest(r, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, code)
		}
	}
}

func TestRateLimiterRejectsOverBudget(t *testing.T) {
	r := newLimitedRouter(2, time.Minute)

	doRequest(r, "10.0.0.2")
	doRequest(r, "10.0.0.2")

	if code := doRequest(r, "10.0.0.2"); code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	r := newLimitedRouter(1, time.Minute)

	if code := doRequest(r, "10.0.0.3"); code != http.StatusOK {
		t.Fatalf("first client: got %d, want 200", code)
	}
	if code := doRequest(r, "10.0.0.4"); code != http.StatusOK {
		t.Fatalf("second client should have its own budget, got %d", code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	r := newLimitedRouter(1, 20*time.Millisecond)

	doRequest(r, "10.0.0.5")
	if code := doRequest(r, "10.0.0.5"); code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429 before refill", code)
	}

	time.Sleep(30 * time.Millisecond)
	if code := doRequest(r, "10.0.0.5"); code != http.StatusOK {
		t.Fatalf("got %d, want 200 after refill", code)
	}
}
