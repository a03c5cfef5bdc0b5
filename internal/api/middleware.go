package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsboard",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "opsboard",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Metrics records request counts and latency per matched route.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt atomic.Int64 // unix nanoseconds
}

func (c *cachedLimiter) expired(now time.Time) bool {
	return now.UnixNano() >= c.expiresAt.Load()
}

// clientLimiters hands out one limiter per client. Entries expire after ttl
// without a request and are swept at most once per ttl.
type clientLimiters struct {
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time

	entries   sync.Map // client address -> *cachedLimiter
	mu        sync.Mutex
	nextSweep time.Time
}

func newClientLimiters(limit rate.Limit, burst int, ttl time.Duration) *clientLimiters {
	return &clientLimiters{limit: limit, burst: burst, ttl: ttl, now: time.Now}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	now := c.now()
	c.sweep(now)
	if v, ok := c.entries.Load(key); ok {
		cached := v.(*cachedLimiter)
		if !cached.expired(now) {
			cached.expiresAt.Store(now.Add(c.ttl).UnixNano())
			return cached.limiter
		}
	}
	cached := &cachedLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
	cached.expiresAt.Store(now.Add(c.ttl).UnixNano())
	c.entries.Store(key, cached)
	return cached.limiter
}

func (c *clientLimiters) sweep(now time.Time) {
	c.mu.Lock()
	if now.Before(c.nextSweep) {
		c.mu.Unlock()
		return
	}
	c.nextSweep = now.Add(c.ttl)
	c.mu.Unlock()

	c.entries.Range(func(k, v interface{}) bool {
		if v.(*cachedLimiter).expired(now) {
			c.entries.Delete(k)
		}
		return true
	})
}

func (c *clientLimiters) size() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
