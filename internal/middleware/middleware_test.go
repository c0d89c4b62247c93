package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"monetadirect/internal/auth"
	"monetadirect/internal/metrics"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRateLimiter_StrictTier(t *testing.T) {
	l := NewRateLimiter(metrics.New(prometheus.NewRegistry()))
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := map[int]int{}
	for i := 0; i < burstStrict+3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes[w.Code]++
	}
	assert.Equal(t, burstStrict, codes[http.StatusOK])
	assert.Equal(t, 3, codes[http.StatusTooManyRequests])

	// other addresses and tiers have their own buckets
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/callback", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResolveRateTier(t *testing.T) {
	tests := map[string]string{
		"/admin/login":    TierStrict,
		"/callback":       TierGateway,
		"/checkout/abc":   TierGeneral,
		"/admin/settings": TierGeneral,
	}
	for path, want := range tests {
		_, _, tier := resolveRateTier(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, tier, path)
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	l := NewRateLimiter(nil)
	l.getVisitor("a", limitGeneral, burstGeneral)

	l.evictIdle(time.Now())
	assert.Len(t, l.visitors, 1)

	l.evictIdle(time.Now().Add(10 * time.Minute))
	assert.Empty(t, l.visitors)
}

func TestRequireOperator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	issuer := auth.NewIssuer(string(hash), "jwt-secret", time.Hour)

	var reached bool
	handler := RequireOperator(issuer, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, reached = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("No token", func(t *testing.T) {
		reached = false
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/admin/settings", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("Garbage token", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		handler(w, req, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, reached)
	})

	t.Run("Valid token", func(t *testing.T) {
		token, _, err := issuer.Login("hunter2")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler(w, req, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, reached)
	})
}
