package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// In-memory per-IP fixed-window rate limiter. Good enough for a single
// instance fronting a bot webhook; swap for Redis if the service is ever
// scaled horizontally.

func getEnvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

// WebhookRateMax is the per-IP request budget per minute for the webhook
// endpoint, overridable via WEBHOOK_RATE_MAX.
func WebhookRateMax() int {
	return getEnvInt("WEBHOOK_RATE_MAX", 120)
}

type IPRateLimiter struct {
	max    int
	window time.Duration

	mu    sync.Mutex
	state map[string][]int64
}

// NewIPRateLimiter allows max requests per window for each client IP.
func NewIPRateLimiter(max int, window time.Duration) *IPRateLimiter {
	l := &IPRateLimiter{
		max:    max,
		window: window,
		state:  make(map[string][]int64),
	}
	go l.cleanupLoop()
	return l
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Allow records one request from ip and reports whether it fits the window.
func (l *IPRateLimiter) Allow(ip string) bool {
	now := time.Now().UnixNano()
	cutoff := now - l.window.Nanoseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.state[ip]
	kept := ts[:0]
	for _, t := range ts {
		if t > cutoff {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.state[ip] = kept
		return false
	}
	l.state[ip] = append(kept, now)
	return true
}

func (l *IPRateLimiter) cleanupLoop() {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for range tick.C {
		cutoff := time.Now().UnixNano() - l.window.Nanoseconds()
		l.mu.Lock()
		for ip, ts := range l.state {
			if len(ts) == 0 || ts[len(ts)-1] <= cutoff {
				delete(l.state, ip)
			}
		}
		l.mu.Unlock()
	}
}

// Middleware responds 429 once a client exceeds its window.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
