package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/deckforge/internal/api/shared"
	"github.com/phrazzld/deckforge/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTrace(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&logs, nil))

	var seenTrace string
	h := Trace(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTrace = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, seenTrace, 32)
	assert.Equal(t, seenTrace, w.Header().Get(TraceIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, seenTrace, entry["trace_id"])
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&logs, nil))

	h := Trace(base)(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(15), entry["bytes"])
	assert.Equal(t, "/health", entry["path"])
	assert.NotEmpty(t, entry["trace_id"])
}

func TestAPIKey(t *testing.T) {
	t.Parallel()
	keys := []string{"key-aaaaaaaaaaaaaaaa", "key-bbbbbbbbbbbbbbbb"}

	tests := []struct {
		name       string
		keys       []string
		header     string
		wantStatus int
	}{
		{name: "first key", keys: keys, header: "key-aaaaaaaaaaaaaaaa", wantStatus: http.StatusOK},
		{name: "second key", keys: keys, header: "key-bbbbbbbbbbbbbbbb", wantStatus: http.StatusOK},
		{name: "wrong key", keys: keys, header: "key-cccccccccccccccc", wantStatus: http.StatusUnauthorized},
		{name: "prefix of a key", keys: keys, header: "key-aaaa", wantStatus: http.StatusUnauthorized},
		{name: "missing header", keys: keys, wantStatus: http.StatusUnauthorized},
		{name: "auth disabled", keys: nil, wantStatus: http.StatusOK},
		{name: "blank keys disable auth", keys: []string{""}, wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set(APIKeyHeader, tc.header)
			}
			r = r.WithContext(logger.WithLogger(r.Context(), slog.New(slog.NewTextHandler(io.Discard, nil))))
			w := httptest.NewRecorder()

			APIKey(tc.keys)(okHandler()).ServeHTTP(w, r)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), "Invalid or missing API Key")
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()
	l := NewRateLimiter(3)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "other clients have their own bucket")

	l.now = func() time.Time { return base.Add(20 * time.Second) }
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every 20s")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	t.Parallel()
	l := NewRateLimiter(5)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	l.Allow("10.0.0.1")

	l.now = func() time.Time { return base.Add(2 * idleVisitorTTL) }
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Parallel()
	l := NewRateLimiter(1)
	h := l.Middleware(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/presentations", nil)
		r.RemoteAddr = addr
		r = r.WithContext(logger.WithLogger(r.Context(), slog.New(slog.NewTextHandler(io.Discard, nil))))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1:1000").Code)
	w := send("192.0.2.1:2000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "port is not part of the client identity")
	assert.Contains(t, w.Body.String(), "Rate limit exceeded: 1 per 1 minute")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send("192.0.2.2:1000").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()
	l := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
}
