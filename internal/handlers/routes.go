package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/ratelimit"
)

// RegisterRoutes registers the short link API. Shorten endpoints are rate
// limited and require a session or the API key; admin endpoints require a
// session; resolution is open.
func RegisterRoutes(api huma.API, links *LinkHandler, sessions *SessionHandler, admin *AdminHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "shorten",
		Method:      http.MethodPost,
		Path:        "/",
		Summary:     "Create short link",
		Description: "Creates a short link, optionally under a custom key.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Enabled: true},
			auth.MetadataKey:      auth.RequireSessionOrAPIKey,
		},
	}, links.Shorten)

	huma.Register(api, huma.Operation{
		OperationID: "shorten-api",
		Method:      http.MethodPost,
		Path:        "/api/shorten",
		Summary:     "Create short link (external tools)",
		Description: "Creates a short link and returns the full short URL.",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Enabled: true},
			auth.MetadataKey:      auth.RequireSessionOrAPIKey,
		},
	}, links.ShortenAPI)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/login",
		Summary:     "Log in",
		Description: "Exchanges admin credentials for a session cookie.",
		Tags:        []string{"Session"},
	}, sessions.Login)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		huma.Register(api, huma.Operation{
			OperationID:   "logout-" + method,
			Method:        method,
			Path:          "/api/logout",
			Summary:       "Log out",
			Tags:          []string{"Session"},
			DefaultStatus: http.StatusFound,
		}, sessions.Logout)
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/admin/links",
		Summary:     "List links",
		Description: "Lists all links, newest first, one page at a time.",
		Tags:        []string{"Admin"},
		Metadata:    map[string]any{auth.MetadataKey: auth.RequireSession},
	}, admin.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "delete-link",
		Method:      http.MethodDelete,
		Path:        "/api/admin/links/{key}",
		Summary:     "Delete link",
		Tags:        []string{"Admin"},
		Metadata:    map[string]any{auth.MetadataKey: auth.RequireSession},
	}, admin.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID:   "resolve",
		Method:        http.MethodGet,
		Path:          "/{key}",
		Summary:       "Follow short link",
		Description:   "Redirects to the target, or serves an interstitial or not-found page.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusFound,
		Responses: map[string]*huma.Response{
			"200": {Description: "Interstitial page", Content: map[string]*huma.MediaType{"text/html": {}}},
			"404": {Description: "Not found page", Content: map[string]*huma.MediaType{"text/html": {}}},
		},
	}, links.Resolve)
}
