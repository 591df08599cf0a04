package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window length.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Defaults to the
	// client IP.
	KeyFunc func(*http.Request) string
}

// client tracks request counts in two adjacent window buckets. bucket is the
// index of the window holding counts[1]; counts[0] belongs to the previous
// bucket.
type client struct {
	bucket int64
	counts [2]int
}

type decision struct {
	ok        bool
	remaining int
	reset     time.Time
}

type limiter struct {
	max    int
	window time.Duration
	key    func(*http.Request) string

	mu      sync.Mutex
	clients map[string]*client
}

func newLimiter(cfg RateLimitConfig) *limiter {
	key := cfg.KeyFunc
	if key == nil {
		key = clientIP
	}
	return &limiter{
		max:     cfg.Max,
		window:  cfg.Window,
		key:     key,
		clients: make(map[string]*client),
	}
}

// take records one request attempt for key and decides whether it passes.
// The effective count weights the previous bucket by its remaining overlap
// with a window ending now, which smooths bursts at bucket boundaries.
func (l *limiter) take(key string, now time.Time) decision {
	bucket := now.UnixNano() / int64(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: bucket}
		l.clients[key] = c
	}

	switch delta := bucket - c.bucket; {
	case delta == 1:
		c.counts[0], c.counts[1] = c.counts[1], 0
		c.bucket = bucket
	case delta != 0:
		c.counts = [2]int{}
		c.bucket = bucket
	}

	bucketStart := time.Unix(0, bucket*int64(l.window))
	weight := 1 - float64(now.Sub(bucketStart))/float64(l.window)
	used := float64(c.counts[0])*weight + float64(c.counts[1])

	d := decision{reset: bucketStart.Add(l.window)}
	if used >= float64(l.max) {
		return d
	}

	c.counts[1]++
	d.ok = true
	d.remaining = l.max - int(used) - 1
	if d.remaining < 0 {
		d.remaining = 0
	}
	return d
}

// evict drops clients that have been idle for two full windows.
func (l *limiter) evict(now time.Time) {
	bucket := now.UnixNano() / int64(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if bucket-c.bucket >= 2 {
			delete(l.clients, key)
		}
	}
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := l.take(l.key(r), time.Now())

			hdr := w.Header()
			hdr.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
			hdr.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
			hdr.Set("X-RateLimit-Reset", strconv.FormatInt(d.reset.Unix(), 10))

			if !d.ok {
				retry := math.Ceil(math.Max(time.Until(d.reset).Seconds(), 0))
				hdr.Set("Retry-After", strconv.Itoa(int(retry)))
				hdr.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Rejected requests get 429 with a JSON body; every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset.
//
// Stale per-client state is only reclaimed when the same key shows up again;
// use RateLimitWithCleanup for unbounded key spaces.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// idle client state every window. The goroutine exits when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()
	return l.middleware()
}

// clientIP is the default limiter key: the first X-Forwarded-For hop, then
// X-Real-IP, then the RemoteAddr host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
