package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

// UnknownClient is the shared bucket for requests that carry no client
// address header.
const UnknownClient = "unknown"

// RateLimiter returns a Huma middleware that limits operations which opt in
// through ratelimit.EndpointConfig. Other operations pass straight through.
func RateLimiter(api huma.API, limiter ratelimit.Limiter, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg := ratelimit.GetEndpointConfig(ctx)
		if cfg == nil || !cfg.Enabled {
			next(ctx)

			return
		}

		identity := ClientIdentity(ctx)

		allowed, err := limiter.Allow(ctx.Context(), identity)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

			return
		}

		if !allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("method", ctx.Method()),
				zap.String("client", identity),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")

			return
		}

		next(ctx)
	}
}

// ClientIdentity names the caller for rate limiting: the first present of
// CF-Connecting-IP, the first X-Forwarded-For hop and X-Real-IP, or
// UnknownClient.
func ClientIdentity(ctx huma.Context) string {
	if ip := strings.TrimSpace(ctx.Header("CF-Connecting-IP")); ip != "" {
		return ip
	}

	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(ctx.Header("X-Real-IP")); ip != "" {
		return ip
	}

	return UnknownClient
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
