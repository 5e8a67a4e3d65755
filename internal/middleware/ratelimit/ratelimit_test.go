package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 21, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, CleanupInterval: time.Hour})
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are tracked separately")
	}

	clock.Advance(30 * time.Second)
	if rl.Allow("1.2.3.4") {
		t.Fatal("window has not reset yet")
	}
	if got := rl.RetryAfter("1.2.3.4"); got != 30 {
		t.Fatalf("RetryAfter = %d, want 30", got)
	}

	clock.Advance(30 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should have reset")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 2 || m.ClientCount != 2 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 10)
	rl.Allow("old")
	clock.Advance(11 * time.Minute)
	rl.Allow("new")

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed %d entries, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("ActiveClients = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ip := func(*http.Request) string { return "9.9.9.9" }
	h := rl.Middleware(ip, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first request status %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}
}

func TestMiddlewareCustomHandler(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	called := false
	h := rl.Middleware(func(*http.Request) string { return "x" }, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTooManyRequests)
	})(http.NotFoundHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("onLimit was not called")
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	rl := NewLimiter(Config{})
	defer rl.Stop()
	if rl.requestsPerMinute != 60 || rl.cleanupInterval != 5*time.Minute {
		t.Fatalf("defaults not applied: %d %v", rl.requestsPerMinute, rl.cleanupInterval)
	}
	rl.Stop()
}
