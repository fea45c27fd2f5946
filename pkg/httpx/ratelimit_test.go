package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notafemboy/blogauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"x-forwarded-for first hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
		{"blank x-forwarded-for falls through", map[string]string{"X-Forwarded-For": " ", "X-Real-IP": "203.0.113.3"}, "203.0.113.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom("192.168.1.1:12345")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.IPKeyExtractor(req))
		})
	}
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := requestFrom("192.168.1.1:12345")
	extract := httpx.CompositeKeyExtractor(":", httpx.UserIDKeyExtractor, httpx.IPKeyExtractor)

	require.Equal(t, "192.168.1.1", extract(req))

	req = req.WithContext(context.WithValue(req.Context(), httpx.CtxKeyUserID, "U1"))
	require.Equal(t, "U1:192.168.1.1", extract(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("blocks over limit with headers", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
		h := httpx.RateLimitMiddleware(cfg, httpx.IPKeyExtractor)(okHandler)

		for i := range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
			require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	})

	t.Run("keys are independent", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitByIP(cfg)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, requestFrom("192.168.1.2:1"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no key lets request through", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "1000")
		t.Setenv("RATELIMIT_TEST_WINDOW", "30s")
		t.Setenv("RATELIMIT_TEST_BURST", "50")

		got := httpx.RateLimitFromEnv("TEST", def)
		require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: 30 * time.Second, Burst: 50}, got)
	})

	t.Run("partial override keeps the rest", func(t *testing.T) {
		t.Setenv("RATELIMIT_PARTIAL_BURST", "9")

		got := httpx.RateLimitFromEnv("PARTIAL", def)
		require.Equal(t, 5, got.RequestsPerWindow)
		require.Equal(t, 9, got.Burst)
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("RATELIMIT_BAD_REQUESTS", "lots")
		require.Equal(t, def, httpx.RateLimitFromEnv("BAD", def))
	})

	t.Run("non-positive falls back", func(t *testing.T) {
		t.Setenv("RATELIMIT_ZERO_BURST", "0")
		require.Equal(t, def, httpx.RateLimitFromEnv("ZERO", def))
	})
}

func TestRateLimitProfilesAreOrdered(t *testing.T) {
	require.Less(t, httpx.StrictLimit.RequestsPerWindow, httpx.ModerateLimit.RequestsPerWindow)
	require.Less(t, httpx.ModerateLimit.RequestsPerWindow, httpx.LenientLimit.RequestsPerWindow)
	require.Less(t, httpx.LenientLimit.RequestsPerWindow, httpx.PublicLimit.RequestsPerWindow)
}
