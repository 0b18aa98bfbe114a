package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/nextbet/internal/metrics"
)

// metricsMiddleware records request counts and latency by route pattern
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

const maxTrackedClients = 256

// rateLimiter hands out one token bucket per client IP. The least recently
// seen clients are forgotten once maxTrackedClients is reached.
type rateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	clients, _ := lru.New[string, *rate.Limiter](maxTrackedClients)
	return &rateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: clients,
	}
}

func (l *rateLimiter) limiterFor(ip string) *rate.Limiter {
	if lim, ok := l.clients.Get(ip); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	// Another request may have raced us here; keep whichever got in first
	if prev, ok, _ := l.clients.PeekOrAdd(ip, lim); ok {
		return prev
	}
	return lim
}

func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.limiterFor(c.ClientIP()).Allow() {
			metrics.HTTPRateLimited.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}
