package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/subtext-labs/subtext/internal/model"
)

// clientLimiters holds one token bucket per remote client. Entries
// expire on their own so idle clients do not accumulate; only the
// client address is keyed - no request content is ever stored.
type clientLimiters struct {
	cache *gocache.Cache
	rate  rate.Limit
	burst int
}

func newClientLimiters(perMinute float64, burst int) *clientLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiters{
		cache: gocache.New(10*time.Minute, 15*time.Minute),
		rate:  rate.Limit(perMinute / 60),
		burst: burst,
	}
}

func (l *clientLimiters) allow(client string) bool {
	var limiter *rate.Limiter
	if v, found := l.cache.Get(client); found {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(l.rate, l.burst)
	}
	l.cache.SetDefault(client, limiter)
	return limiter.Allow()
}

// clientRateLimit throttles analysis requests per client IP. Analysis
// calls are expensive oracle round-trips, so the HTTP edge sheds abuse
// before any quota is spent.
func clientRateLimit(limits model.LimitsConfig) gin.HandlerFunc {
	if limits.ClientRequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiters := newClientLimiters(limits.ClientRequestsPerMinute, limits.ClientBurst)
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
