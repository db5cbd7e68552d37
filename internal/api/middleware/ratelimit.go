package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/pkg/metrics"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Limiter  ports.RateLimiter
	Capacity int
	Prefix   string
	Log      zerolog.Logger
}

// RateLimit throttles a route per client address. Limiter failures let the
// request through.
func RateLimit(cfg RateLimitConfig, route string) echo.MiddlewareFunc {
	limit := strconv.Itoa(cfg.Capacity)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if cfg.Limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, route, c.RealIP())

			decision, err := cfg.Limiter.Allow(c.Request().Context(), key)
			if err != nil {
				cfg.Log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				h.Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, retry later")
			}
			return next(c)
		}
	}
}

func rateKey(prefix, route, client string) string {
	if prefix == "" {
		prefix = "rl"
	}
	if client == "" {
		client = "unknown"
	}
	return prefix + ":" + route + ":" + client
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) string {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
