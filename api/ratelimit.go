package api

import (
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Option configures a Server
type Option func(*Server)

// WithNewGameLimit caps how fast a single client IP may create games.
// Games are never evicted, so this bounds memory growth from one caller.
// A non-positive limit disables limiting.
func WithNewGameLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		if limit <= 0 {
			s.newGameLimiter = nil
			return
		}
		s.newGameLimiter = newIPLimiter(limit, burst)
	}
}

// ipLimiter hands out one token bucket per client IP
type ipLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

func (l *ipLimiter) Allow(r *http.Request) bool {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return l.get(ip).Allow()
}

// limitNewGames rejects game creation over the per-IP budget
func (s *Server) limitNewGames(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.newGameLimiter != nil && !s.newGameLimiter.Allow(r) {
			log.Warn().Str("remote", r.RemoteAddr).Msg("new game rate limited")
			respondError(w, http.StatusTooManyRequests, "too many new games, slow down")
			return
		}
		next(w, r)
	}
}
