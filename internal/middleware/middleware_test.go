package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tabeya-be/internal/auth"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetCustomerIDFromContext(r.Context())
			assert.False(t, ok, "Context should not contain customer ID")
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/api/products", nil)
		w := httptest.NewRecorder()

		Auth(secret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		Auth(secret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), ReasonUnauthorized)
	})

	t.Run("Valid Bearer Token", func(t *testing.T) {
		tok, err := auth.IssueCustomerToken(7, secret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := utils.GetCustomerIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, int64(7), id)
			w.WriteHeader(http.StatusOK)
		})

		Auth(secret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Valid Cookie Token", func(t *testing.T) {
		tok, err := auth.IssueCustomerToken(9, secret, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: tok})
		w := httptest.NewRecorder()

		var seen int64
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = utils.GetCustomerIDFromContext(r.Context())
		})

		Auth(secret)(next).ServeHTTP(w, req)

		assert.Equal(t, int64(9), seen)
	})

	t.Run("Expired Token", func(t *testing.T) {
		tok, err := auth.IssueCustomerToken(7, secret, -time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		Auth(secret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Disabled Without Secret", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()

		Auth(nil)(okHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("Strict Tier For Writes", func(t *testing.T) {
		l := NewRateLimiter("")
		handler := l.Middleware(okHandler())

		codes := map[int]int{}
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/place", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes[w.Code]++
		}

		assert.Equal(t, burstStrict, codes[http.StatusOK])
		assert.Equal(t, 1, codes[http.StatusTooManyRequests])
	})

	t.Run("Reads Use Separate Bucket", func(t *testing.T) {
		l := NewRateLimiter("")
		handler := l.Middleware(okHandler())

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/orders/place", nil)
			req.RemoteAddr = "10.0.0.2:5555"
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Tier Resolution", func(t *testing.T) {
		l := NewRateLimiter("svc-key")

		req := httptest.NewRequest(http.MethodPost, "/api/reviews", nil)
		req.Header.Set("X-Service-Auth", "svc-key")
		_, _, tier := l.resolveRateTier(req)
		assert.Equal(t, "internal", tier)

		req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("X-Client-Type", "frontend-heavy")
		_, _, tier = l.resolveRateTier(req)
		assert.Equal(t, "frontend", tier)

		req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
		_, _, tier = l.resolveRateTier(req)
		assert.Equal(t, "general", tier)
	})

	t.Run("Identity Prefers Customer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Device-ID", "dev-1")
		assert.Equal(t, "device:dev-1", identity(req))

		req = req.WithContext(utils.SetCustomerContext(req.Context(), 7, "7"))
		assert.Equal(t, "customer:7", identity(req))
	})

	t.Run("Cleanup Drops Idle Visitors", func(t *testing.T) {
		l := NewRateLimiter("")
		now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		l.getVisitor("ip:1:general", limitGeneral, burstGeneral)
		now = now.Add(visitorTTL + time.Second)
		l.getVisitor("ip:2:general", limitGeneral, burstGeneral)
		l.Cleanup()

		assert.Len(t, l.visitors, 1)
		_, ok := l.visitors["ip:2:general"]
		assert.True(t, ok)
	})
}

func TestLogging(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	defer logger.Replace(zap.New(core))()

	handler := logger.RequestIDMiddleware(Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/orders/place", nil)
	req.Header.Set(logger.RequestIDHeader, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	logs := observed.FilterMessage("HTTP Request").All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "/api/orders/place", fields["path"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "req-1", fields["request_id"])
}
