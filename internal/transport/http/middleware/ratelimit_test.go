package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ptoinfo/internal/domain/auth"
)

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func loginRequest(email, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"`+email+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitAs(userID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pto/sessions/s1/requests", nil).WithContext(withUser("tenant-1", userID))
	req.RemoteAddr = remoteAddr
	return req
}

func withUser(tenantID, userID string) context.Context {
	return context.WithValue(context.Background(), ctxKeyUser, auth.UserContext{TenantID: tenantID, UserID: userID})
}

type failingCounter struct{ calls int }

func (f *failingCounter) Hit(context.Context, string, time.Duration) (int, time.Duration, error) {
	f.calls++
	return 0, 0, errors.New("redis down")
}

type recordingCounter struct {
	keys  []string
	inner RateCounter
}

func (r *recordingCounter) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	r.keys = append(r.keys, key)
	return r.inner.Hit(ctx, key, window)
}

func TestRateLimitKeys(t *testing.T) {
	tests := []struct {
		name   string
		first  *http.Request
		second *http.Request
		want   int
	}{
		{
			name:   "same user different ip",
			first:  submitAs("user-1", "198.51.100.11:2222"),
			second: submitAs("user-1", "198.51.100.12:3333"),
			want:   http.StatusTooManyRequests,
		},
		{
			name:   "anonymous same ip",
			first:  loginRequest("a@example.com", "203.0.113.10:4444"),
			second: loginRequest("b@example.com", "203.0.113.10:5555"),
			want:   http.StatusTooManyRequests,
		},
		{
			name:   "different users",
			first:  httptest.NewRequest(http.MethodGet, "/api/v1/pto/sessions/s1", nil).WithContext(withUser("tenant-1", "user-1")),
			second: httptest.NewRequest(http.MethodGet, "/api/v1/pto/sessions/s1", nil).WithContext(withUser("tenant-1", "user-2")),
			want:   http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
			if rec := serve(limited, tt.first); rec.Code != http.StatusNoContent {
				t.Fatalf("expected first request to pass, got %d", rec.Code)
			}
			if rec := serve(limited, tt.second); rec.Code != tt.want {
				t.Fatalf("expected %d for second request, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(http.HandlerFunc(noContent))
	const addr = "192.0.2.20:1111"

	if rec := serve(limited, loginRequest("a@example.com", addr)); rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	if rec := serve(limited, loginRequest("a@example.com", addr)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec.Code)
	}

	time.Sleep(60 * time.Millisecond)

	if rec := serve(limited, loginRequest("a@example.com", addr)); rec.Code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", rec.Code)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	limited := RateLimit(1, time.Minute)(http.HandlerFunc(noContent))
	const addr = "192.0.2.30:1234"

	first := serve(limited, loginRequest("a@example.com", addr))
	if first.Header().Get("X-RateLimit-Limit") != "1" || first.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected headers on first response: %v", first.Header())
	}

	rec := serve(limited, loginRequest("a@example.com", addr))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected throttled response, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatalf("expected retry metadata, got %v", rec.Header())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"rate_limited"`)) {
		t.Fatalf("expected rate_limited error code, got %s", rec.Body.String())
	}
}

func TestRateLimitFailsOpenWhenCounterErrors(t *testing.T) {
	counter := &failingCounter{}
	limited := RateLimit(1, time.Minute, WithCounter(counter))(http.HandlerFunc(noContent))

	for i := 0; i < 3; i++ {
		if rec := serve(limited, loginRequest("a@example.com", "192.0.2.40:1")); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected pass-through, got %d", i+1, rec.Code)
		}
	}
	if counter.calls != 3 {
		t.Fatalf("expected counter to be consulted 3 times, got %d", counter.calls)
	}
}

func TestSensitiveMutationRateLimitScope(t *testing.T) {
	limited := SensitiveMutationRateLimit(4, time.Minute, nil)(http.HandlerFunc(noContent))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/pto/sessions/s1", nil)
		req.RemoteAddr = "198.51.100.40:8888"
		if rec := serve(limited, req); rec.Code != http.StatusNoContent {
			t.Fatalf("read request %d should bypass sensitive limits, got %d", i+1, rec.Code)
		}
	}

	ctx := withUser("tenant-1", "hr-1")
	for i, want := range []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pto/sessions/s1/requests", nil).WithContext(ctx)
		req.RemoteAddr = "198.51.100.41:9999"
		if rec := serve(limited, req); rec.Code != want {
			t.Fatalf("sensitive request %d: expected %d, got %d", i+1, want, rec.Code)
		}
	}
}

func TestSensitiveLimitersUseSeparateBuckets(t *testing.T) {
	counter := &recordingCounter{inner: NewMemoryCounter()}
	limited := SensitiveMutationRateLimit(4, time.Minute, counter)(http.HandlerFunc(noContent))

	serve(limited, loginRequest("HR@Example.com", "192.0.2.50:1"))

	want := []string{"auth-ip:192.0.2.50", "auth-email:email:hr@example.com"}
	if len(counter.keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, counter.keys)
	}
	for i := range want {
		if counter.keys[i] != want[i] {
			t.Fatalf("expected keys %v, got %v", want, counter.keys)
		}
	}
}

func TestSensitiveRateScopePaths(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   sensitiveScope
	}{
		{method: http.MethodPost, path: "/api/v1/auth/login", want: sensitiveScopeAuth},
		{method: http.MethodPost, path: "/api/v1/auth/mfa/enable", want: sensitiveScopeActor},
		{method: http.MethodPost, path: "/api/v1/pto/sessions", want: sensitiveScopeActor},
		{method: http.MethodPut, path: "/api/v1/pto/sessions/s1/employee", want: sensitiveScopeActor},
		{method: http.MethodPost, path: "/api/v1/pto/sessions/s1/modal/open", want: sensitiveScopeNone},
		{method: http.MethodGet, path: "/api/v1/auth/me", want: sensitiveScopeNone},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if got := sensitiveRateScope(req); got != tt.want {
			t.Fatalf("%s %s: expected scope %q, got %q", tt.method, tt.path, tt.want, got)
		}
	}
}

func TestMemoryCounterEvictsExpiredWindows(t *testing.T) {
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	counter := &memoryCounter{now: func() time.Time { return clock }, buckets: map[string]*rateBucket{}}
	ctx := context.Background()

	for _, key := range []string{"api:198.51.100.1", "api:198.51.100.2", "api:198.51.100.3"} {
		if _, _, err := counter.Hit(ctx, key, time.Minute); err != nil {
			t.Fatalf("hit failed: %v", err)
		}
	}
	if len(counter.buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(counter.buckets))
	}

	clock = clock.Add(2 * time.Minute)
	count, resetIn, err := counter.Hit(ctx, "api:198.51.100.9", time.Minute)
	if err != nil {
		t.Fatalf("hit failed: %v", err)
	}
	if count != 1 || resetIn != time.Minute {
		t.Fatalf("unexpected fresh window: count=%d reset=%v", count, resetIn)
	}
	if len(counter.buckets) != 1 {
		t.Fatalf("expected expired buckets to be evicted, got %d", len(counter.buckets))
	}
}
