package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a client IP's limiter is kept without traffic.
const idleLimiterTTL = 10 * time.Minute

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters *ttlcache.Cache[string, *rate.Limiter]
}

// NewRateLimiter allows perSecond requests per client IP with the given
// burst. Call Stop to release the eviction goroutine.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}

	limiters := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](idleLimiterTTL),
	)
	go limiters.Start()

	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: limiters,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	item, _ := rl.limiters.GetOrSet(key, rate.NewLimiter(rl.limit, rl.burst))
	return item.Value()
}

// Middleware returns the echo middleware.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if rl.limiter(ip).Allow() {
				return next(c)
			}

			log.Warn().Str("client_ip", ip).Str("path", c.Path()).Msg("Rate limit exceeded")

			retryAfter := 1
			if rl.limit > 0 {
				retryAfter = int(math.Ceil(1 / float64(rl.limit)))
			}
			c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(retryAfter))

			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":             "too_many_requests",
				"error_description": "Rate limit exceeded",
			})
		}
	}
}

// Stop stops the idle limiter eviction.
func (rl *RateLimiter) Stop() {
	rl.limiters.Stop()
}
