package middleware

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/auth"
	"go.uber.org/zap"
)

const (
	msgLoginRequired    = "Unauthorized. Please login first."
	msgLoginOrAPIKey    = "Unauthorized. Please login first or provide valid API key."
	headerAPIKey        = "X-API-Key"
	headerAuthorization = "Authorization"
	headerCookie        = "Cookie"
)

// Authenticate enforces the auth.Requirement declared in operation metadata.
// Authenticated callers are stored in the request context as an
// auth.Principal. Every rejection carries the same message whatever the
// cause.
func Authenticate(api huma.API, authenticator *auth.Authenticator, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requirement := auth.GetRequirement(ctx)
		if requirement == auth.RequireNone {
			next(ctx)

			return
		}

		if principal, ok := sessionPrincipal(ctx, authenticator, logger); ok {
			next(huma.WithContext(ctx, auth.WithPrincipal(ctx.Context(), principal)))

			return
		}

		if requirement == auth.RequireSessionOrAPIKey {
			key := auth.APIKeyFromHeaders(ctx.Header(headerAPIKey), ctx.Header(headerAuthorization))
			if authenticator.ValidAPIKey(key) {
				principal := auth.Principal{Method: auth.MethodAPIKey}
				next(huma.WithContext(ctx, auth.WithPrincipal(ctx.Context(), principal)))

				return
			}

			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msgLoginOrAPIKey)

			return
		}

		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msgLoginRequired)
	}
}

func sessionPrincipal(ctx huma.Context, authenticator *auth.Authenticator, logger *zap.Logger) (auth.Principal, bool) {
	token := sessionToken(ctx.Header(headerCookie))
	if token == "" {
		return auth.Principal{}, false
	}

	session, err := authenticator.SessionFromToken(token)
	if err != nil {
		logger.Debug("session rejected", zap.String("path", operationPath(ctx)), zap.Error(err))

		return auth.Principal{}, false
	}

	return auth.Principal{Username: session.Username, Method: auth.MethodSession}, true
}

// sessionToken extracts the session cookie value from a Cookie header.
func sessionToken(header string) string {
	if header == "" {
		return ""
	}

	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}

	for _, c := range cookies {
		if c.Name == auth.CookieName {
			return c.Value
		}
	}

	return ""
}
