package middleware

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nanos of the most recent request
}

// NewRateLimitPerIP caps request rate per client IP with an LRU of limiters.
// The idle-IP sweeper runs until ctx is cancelled.
func NewRateLimitPerIP(ctx context.Context, limit, burst, cacheSize int, ttl time.Duration) gin.HandlerFunc {
	visitors, _ := lru.New[string, *visitor](cacheSize)

	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-ttl).UnixNano()
				for _, key := range visitors.Keys() {
					if v, ok := visitors.Peek(key); ok && v.last.Load() < cutoff {
						visitors.Remove(key)
					}
				}
			}
		}
	}()

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		v, ok := visitors.Get(host)
		if !ok {
			v = &visitor{
				limiter: rate.NewLimiter(rate.Limit(limit), burst),
			}
			visitors.Add(host, v)
		}
		v.last.Store(time.Now().UnixNano())

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(429, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
