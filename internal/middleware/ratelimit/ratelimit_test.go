package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiterWindow(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 3}, c.Now)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other clients are limited separately")
	}
	if rl.Hits() != 1 {
		t.Fatalf("expected 1 hit, got %d", rl.Hits())
	}

	c.Advance(20 * time.Second)
	if got := rl.RetryAfter("1.2.3.4"); got != 40*time.Second {
		t.Fatalf("expected retry after 40s, got %v", got)
	}
	// requests keep failing inside the window
	if rl.Allow("1.2.3.4") {
		t.Fatal("still inside the window")
	}

	c.Advance(40 * time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("window should have reset")
	}
}

func TestLimiterCleanup(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{}, c.Now)
	defer rl.Stop()

	rl.Allow("a")
	c.Advance(5 * time.Minute)
	rl.Allow("b")
	c.Advance(6 * time.Minute)

	rl.cleanupStaleEntries()
	if n := rl.ActiveClients(); n != 1 {
		t.Fatalf("expected 1 active client, got %d", n)
	}
}

func TestMiddleware(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(Config{RequestsPerMinute: 1}, c.Now)
	defer rl.Stop()

	onlyPost := func(r *http.Request) bool { return r.Method == http.MethodPost }
	h := rl.Middleware(func(*http.Request) string { return "ip" }, onlyPost, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for _, method := range []string{http.MethodPost, http.MethodPost, http.MethodGet} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(method, "/api/projection", nil))
		codes = append(codes, rr.Code)
		if rr.Code == http.StatusTooManyRequests && rr.Header().Get("Retry-After") != "60" {
			t.Fatalf("unexpected Retry-After %q", rr.Header().Get("Retry-After"))
		}
	}
	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}
