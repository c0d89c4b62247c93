package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"monetadirect/internal/metrics"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// operator login (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// gateway callbacks arrive in bursts from a handful of addresses
	limitGateway = rate.Limit(50)
	burstGateway = 100

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

const (
	TierStrict  = "strict"
	TierGateway = "gateway"
	TierGeneral = "general"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address and tier.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	idle     time.Duration
	metrics  *metrics.Metrics
}

func NewRateLimiter(m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		idle:     3 * time.Minute,
		metrics:  m,
	}
}

func (l *RateLimiter) getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		l.visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops idle buckets every minute until ctx is done.
func (l *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle(time.Now())
		}
	}
}

func (l *RateLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		key := fmt.Sprintf("ip:%s:%s", ip, tier)

		if !l.getVisitor(key, limit, burst).Allow() {
			if l.metrics != nil {
				l.metrics.RecordRateLimited(tier)
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	switch r.URL.Path {
	case "/admin/login":
		return limitStrict, burstStrict, TierStrict
	case "/callback":
		return limitGateway, burstGateway, TierGateway
	}
	return limitGeneral, burstGeneral, TierGeneral
}
