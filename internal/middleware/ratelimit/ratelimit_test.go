package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestLimiter_Allow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 3}, clock.now)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("4th request within the window allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other client denied")
	}

	clock.t = clock.t.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("request in a new window denied")
	}
}

func TestLimiter_RetriesDoNotExtendWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 1}, clock.now)

	rl.Allow("ip")
	for i := 0; i < 5; i++ {
		clock.t = clock.t.Add(10 * time.Second)
		rl.Allow("ip")
	}
	clock.t = clock.t.Add(10 * time.Second) // 60s after the first request
	if !rl.Allow("ip") {
		t.Fatal("denied requests should not push the window forward")
	}
}

func TestLimiter_CleanupStaleEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 10}, clock.now)
	rl.Allow("old")
	clock.t = clock.t.Add(11 * time.Minute)
	rl.Allow("new")

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("ActiveClients() = %d, want 1", got)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestMiddleware_OnlyLimitsMutations(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	rl := newLimiter(Config{RequestsPerMinute: 1}, clock.now)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodPut, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tt.method, "/api/records", nil))
		if rr.Code != tt.want {
			t.Fatalf("request %d %s: status %d, want %d", i, tt.method, rr.Code, tt.want)
		}
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Fatalf("missing Retry-After header")
		}
	}
}
