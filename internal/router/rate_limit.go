package router

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ovaphlow/pitchfork/service-registration/pkg/metrics"
)

type RateLimitConfig struct {
	RPS     float64       `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
	Burst   int           `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
	IdleTTL time.Duration `env:"HTTP_RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiterStore hands out one token bucket per client key and drops buckets
// not used within idleTTL.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &limiterStore{
		limiters: map[string]*limiterEntry{},
		rps:      rate.Limit(cfg.RPS),
		burst:    burst,
		idleTTL:  ttl,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}
	e, ok := s.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(s.rps, s.burst)}
		s.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim
}

// sweep must be called with mu held.
func (s *limiterStore) sweep(now time.Time) {
	for k, e := range s.limiters {
		if now.Sub(e.lastSeen) >= s.idleTTL {
			delete(s.limiters, k)
		}
	}
	s.lastSweep = now
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimitMiddleware enforces a token bucket per client IP. RPS <= 0 disables it.
func RateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return rateLimit(newLimiterStore(cfg))
}

func rateLimit(store *limiterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !store.get(clientKey(r)).Allow() {
				metrics.RateLimitRejected.Inc()
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}
