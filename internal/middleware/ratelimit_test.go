package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestLimiter(t *testing.T, r rate.Limit, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{Rate: r, Burst: burst, CleanupInterval: time.Minute})
	t.Cleanup(rl.Stop)
	return rl
}

func doFrom(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/universities", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	rl := newTestLimiter(t, 0.001, 5)
	calls := 0
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		if w := doFrom(handler, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if calls != 5 {
		t.Errorf("handler calls = %d, want 5", calls)
	}
}

func TestRateLimitMiddleware_RejectsOverLimit(t *testing.T) {
	rl := newTestLimiter(t, 0.5, 2)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doFrom(handler, "10.0.0.1:1234")
	doFrom(handler, "10.0.0.1:1234")
	w := doFrom(handler, "10.0.0.1:5555")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want %q", got, "2")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want %q", body.Code, "RATE_LIMIT_EXCEEDED")
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want %q", body.Category, "system")
	}
}

// クライアントIPごとに独立したバケットを持つ。
func TestRateLimitMiddleware_IndependentPerIP(t *testing.T) {
	rl := newTestLimiter(t, 0.001, 1)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if w := doFrom(handler, "10.0.0.1:1"); w.Code != http.StatusOK {
		t.Fatalf("first client: status = %d", w.Code)
	}
	if w := doFrom(handler, "10.0.0.1:1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: status = %d, want 429", w.Code)
	}
	if w := doFrom(handler, "10.0.0.2:1"); w.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", w.Code)
	}
	if n := rl.LimiterCount(); n != 2 {
		t.Errorf("LimiterCount = %d, want 2", n)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := newTestLimiter(t, 1, 1)
	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")

	rl.cleanup(time.Now())
	if n := rl.LimiterCount(); n != 2 {
		t.Fatalf("fresh entries should survive, LimiterCount = %d", n)
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if n := rl.LimiterCount(); n != 0 {
		t.Errorf("stale entries should be removed, LimiterCount = %d", n)
	}
}

func TestPerMinuteConfig(t *testing.T) {
	cfg := PerMinuteConfig(120)
	if cfg.Rate != rate.Limit(2) {
		t.Errorf("Rate = %v, want 2", cfg.Rate)
	}
	if cfg.Burst != 120 {
		t.Errorf("Burst = %d, want 120", cfg.Burst)
	}

	if d := PerMinuteConfig(0); d.Burst != 1000 {
		t.Errorf("default Burst = %d, want 1000", d.Burst)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(PerMinuteConfig(60))
	rl.Stop()
	rl.Stop()
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:43210"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Errorf("clientIP = %q, want %q", got, "192.0.2.10")
	}
	req.RemoteAddr = "192.0.2.11"
	if got := clientIP(req); got != "192.0.2.11" {
		t.Errorf("clientIP without port = %q, want %q", got, "192.0.2.11")
	}
}
