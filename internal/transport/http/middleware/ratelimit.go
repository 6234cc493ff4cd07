package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ptoinfo/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

// RateCounter counts hits of a key inside a fixed window. The memory counter
// serves a single instance; the redis counter shares windows between
// replicas.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error)
}

type RateLimitOption func(*rateLimiter)

func WithCounter(counter RateCounter) RateLimitOption {
	return func(rl *rateLimiter) {
		if counter != nil {
			rl.counter = counter
		}
	}
}

type rateLimiter struct {
	name    string
	limit   int
	window  time.Duration
	keyFn   RateLimitKeyFunc
	counter RateCounter
}

func newRateLimiter(name string, limit int, window time.Duration, keyFn RateLimitKeyFunc, opts ...RateLimitOption) *rateLimiter {
	rl := &rateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		counter: NewMemoryCounter(),
	}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.keyFn == nil {
		rl.keyFn = actorOrIPKey
	}
	return rl
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter("api", limit, window, actorOrIPKey, opts...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SensitiveMutationRateLimit applies tighter limits to login and to the
// session mutations that reach the leave services. counter may be nil.
func SensitiveMutationRateLimit(baseLimit int, window time.Duration, counter RateCounter) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)
	shared := WithCounter(counter)
	authByIP := newRateLimiter("auth-ip", authLimit, window, clientIPKey, shared)
	authByEmail := newRateLimiter("auth-email", authLimit, window, AuthEmailOrIPKey("email"), shared)
	byActor := newRateLimiter("actor", mutationLimit, window, actorOrIPKey, shared)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !authByIP.enforce(w, r) || !authByEmail.enforce(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !byActor.enforce(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// enforce counts the request and writes the rate limit headers. Counter
// failures let the request through.
func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	count, resetIn, err := rl.counter.Hit(r.Context(), rl.name+":"+key, rl.window)
	if err != nil {
		slog.WarnContext(r.Context(), "rate counter unavailable", "limiter", rl.name, "err", err)
		return true
	}
	resetSec := durationSeconds(resetIn)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.limit-count, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

	if count <= rl.limit {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.WarnContext(r.Context(), "rate limit exceeded",
		"limiter", rl.name,
		"key", key,
		"path", r.URL.Path,
		"method", r.Method,
		"limit", rl.limit,
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

type rateBucket struct {
	count int
	reset time.Time
}

type memoryCounter struct {
	mu        sync.Mutex
	now       func() time.Time
	buckets   map[string]*rateBucket
	nextSweep time.Time
}

func NewMemoryCounter() RateCounter {
	return &memoryCounter{now: time.Now, buckets: map[string]*rateBucket{}}
}

func (m *memoryCounter) Hit(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	// Expired windows are dropped at most once per window.
	if now.After(m.nextSweep) {
		for k, b := range m.buckets {
			if now.After(b.reset) {
				delete(m.buckets, k)
			}
		}
		m.nextSweep = now.Add(window)
	}

	bucket, ok := m.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(window)}
		m.buckets[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	if field = strings.TrimSpace(field); field == "" {
		field = "email"
	}
	return func(r *http.Request) string {
		if email := bodyString(r, field); email != "" {
			return "email:" + strings.ToLower(email)
		}
		return clientIPKey(r)
	}
}

func actorOrIPKey(r *http.Request) string {
	user, ok := GetUser(r.Context())
	if !ok || user.UserID == "" {
		return clientIPKey(r)
	}
	return "user:" + user.TenantID + ":" + user.UserID
}

// clientIPKey prefers the first X-Forwarded-For hop.
func clientIPKey(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	return remote
}

func durationSeconds(d time.Duration) int {
	switch {
	case d <= 0:
		return 0
	case d < time.Second:
		return 1
	}
	return int(d / time.Second)
}

const maxKeyBody = 64 << 10

// bodyString reads one string field from a JSON body and restores the body
// for the next handler.
func bodyString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxKeyBody))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return ""
	}
	var value string
	if json.Unmarshal(fields[field], &value) != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

// sensitiveRateScope classifies mutations: login is limited per address and
// email, session and MFA changes per actor.
func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	switch {
	case path == "/auth/login":
		return sensitiveScopeAuth
	case path == "/pto/sessions", strings.HasPrefix(path, "/auth/mfa/"):
		return sensitiveScopeActor
	case strings.HasPrefix(path, "/pto/sessions/"):
		if strings.HasSuffix(path, "/employee") || strings.HasSuffix(path, "/requests") {
			return sensitiveScopeActor
		}
	}
	return sensitiveScopeNone
}
