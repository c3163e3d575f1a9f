package middleware

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP
type IPRateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.Mutex
	rate  rate.Limit
	burst int
}

// NewIPRateLimiter creates a limiter allowing r requests per second with the given burst per IP
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  r,
		burst: burst,
	}
}

// Limit returns the configured burst size
func (i *IPRateLimiter) Limit() int {
	return i.burst
}

// GetLimiter returns the bucket for ip, creating it on first use
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.ips[ip] = limiter
	}
	return limiter
}

// Len returns the number of tracked IPs
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// Remaining returns the whole tokens left in a bucket
func Remaining(l *rate.Limiter) int {
	tokens := l.Tokens()
	if math.IsNaN(tokens) || math.IsInf(tokens, 0) {
		return l.Burst()
	}
	tokens = math.Floor(tokens)
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// clientIP strips the port from RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429.
// A request carrying the configured API key bypasses the limit.
func RateLimitMiddleware(limiter *IPRateLimiter, apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if provided := r.Header.Get("X-API-Key"); apiKey != "" && provided != "" &&
				subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) == 1 {
				w.Header().Set("X-RateLimit-Bypass", "true")
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			bucket := limiter.GetLimiter(ip)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

			if !bucket.Allow() {
				stats.Get().RecordRateLimit(false)
				log.Warnf("%s IP %s exceeded the rate limit", logcolors.LogRateLimit, ip)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			stats.Get().RecordRateLimit(true)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(Remaining(bucket)))
			next.ServeHTTP(w, r)
		})
	}
}
