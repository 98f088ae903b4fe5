package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter throttles requests per client IP with a token bucket.
// Buckets refill continuously; clients that stay away long enough are
// forgotten by the background sweep.
type RateLimiter struct {
	perMinute int
	burst     float64
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	done chan struct{}
	once sync.Once
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client IP, with the full
// allowance available as burst. Call Stop on shutdown.
func NewRateLimiter(perMinute int, sweepEvery time.Duration) *RateLimiter {
	rl := &RateLimiter{
		perMinute: perMinute,
		burst:     float64(perMinute),
		now:       time.Now,
		buckets:   make(map[string]*tokenBucket),
		done:      make(chan struct{}),
	}
	go rl.sweep(sweepEvery)
	return rl
}

// Stop terminates the background sweep.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Limit rejects requests from exhausted clients with 429 and a
// Retry-After hint.
func (rl *RateLimiter) Limit() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.take(clientIP(r)) {
				secondsPerToken := 60 / float64(rl.perMinute)
				w.Header().Set("Retry-After", strconv.Itoa(int(secondsPerToken)+1))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take refills the client's bucket for the elapsed time and spends one
// token if one is available.
func (rl *RateLimiter) take(client string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[client]
	if !ok {
		b = &tokenBucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[client] = b
	} else {
		refill := now.Sub(b.lastSeen).Seconds() * float64(rl.perMinute) / 60
		b.tokens = min(b.tokens+refill, rl.burst)
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientIP strips the port so reconnects from the same host share one
// bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := rl.now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for client, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, client)
				}
			}
			rl.mu.Unlock()
		}
	}
}
