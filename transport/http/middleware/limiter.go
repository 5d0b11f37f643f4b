package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"lodge/shared"
	"lodge/shared/cache"
	"lodge/shared/constant"
	"lodge/shared/timezone"
	"lodge/transport/http/response"

	"github.com/rs/zerolog/log"
)

const cacheKeyRateLimit = "limiter"

// RateLimit counts requests per client in fixed windows. Each window has its
// own cache key, so a client that keeps retrying cannot extend its block.
// Cache failures let the request through.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limits := a.config.App.RateLimiter
			if !limits.Enable || limits.WindowSeconds <= 0 {
				next.ServeHTTP(w, r)

				return
			}

			now := timezone.Now().Unix()
			window := int64(limits.WindowSeconds)
			bucket := strconv.FormatInt(now/window, 10)
			retryAfter := int(window - now%window)

			cacheKey := shared.BuildCacheKey(cacheKeyRateLimit, a.getClientIP(r), a.getUA(r), bucket)

			count := 0

			err := a.cache.Get(r.Context(), cacheKey, &count)
			if err != nil && !errors.Is(err, cache.Nil) {
				log.Warn().Err(err).Msg("rate limiter cache unavailable")
				next.ServeHTTP(w, r)

				return
			}

			count++

			if count > limits.MaxRequests {
				response.WithRequestLimitExceeded(w, retryAfter)

				return
			}

			if err = a.cache.Save(r.Context(), cacheKey, count, retryAfter); err != nil {
				log.Warn().Err(err).Msg("rate limiter cache unavailable")
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(limits.MaxRequests))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.Itoa(max(0, limits.MaxRequests-count)))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(limits.WindowSeconds))

			next.ServeHTTP(w, r)
		})
	}
}

func (a *appMiddleware) getUA(r *http.Request) string {
	if ua := r.Header.Get(constant.RequestHeaderUserAgent); ua != "" {
		return ua
	}

	return "unknown"
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the peer address without its port.
func (a *appMiddleware) getClientIP(r *http.Request) string {
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
