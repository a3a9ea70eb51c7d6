package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "secret-key"

type principalOutput struct {
	Body auth.Principal
}

func setupAuthAPI(t *testing.T) (humatest.TestAPI, *auth.Authenticator, *clock.Mock) {
	t.Helper()

	_, api := humatest.New(t)
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	signer := auth.NewSigner([]byte("test-secret"), clk)
	authenticator := auth.NewAuthenticator(signer, auth.Credentials{Username: "admin", Password: "pw"}, testAPIKey, time.Hour, clk)

	api.UseMiddleware(middleware.Authenticate(api, authenticator, zap.NewNop()))

	handler := func(ctx context.Context, _ *struct{}) (*principalOutput, error) {
		p, _ := auth.PrincipalFrom(ctx)

		return &principalOutput{Body: p}, nil
	}

	huma.Register(api, huma.Operation{
		Method: http.MethodGet,
		Path:   "/public",
	}, handler)
	huma.Register(api, huma.Operation{
		Method:   http.MethodGet,
		Path:     "/admin",
		Metadata: map[string]any{auth.MetadataKey: auth.RequireSession},
	}, handler)
	huma.Register(api, huma.Operation{
		Method:   http.MethodPost,
		Path:     "/api",
		Metadata: map[string]any{auth.MetadataKey: auth.RequireSessionOrAPIKey},
	}, handler)

	return api, authenticator, clk
}

func decodePrincipal(t *testing.T, body []byte) auth.Principal {
	t.Helper()

	var p auth.Principal
	require.NoError(t, json.Unmarshal(body, &p))

	return p
}

func TestAuthenticate(t *testing.T) {
	t.Run("public operations need nothing", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Get("/public")

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("session cookie admits admin operations", func(t *testing.T) {
		api, authenticator, _ := setupAuthAPI(t)

		token, err := authenticator.Login("admin", "pw")
		require.NoError(t, err)

		resp := api.Get("/admin", "Cookie: theme=dark; token="+token)

		require.Equal(t, http.StatusOK, resp.Code)

		p := decodePrincipal(t, resp.Body.Bytes())
		assert.Equal(t, "admin", p.Username)
		assert.Equal(t, auth.MethodSession, p.Method)
	})

	t.Run("missing session is rejected", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Get("/admin")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "Please login first.")
	})

	t.Run("api key does not admit session-only operations", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Get("/admin", "X-API-Key: "+testAPIKey)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		api, authenticator, clk := setupAuthAPI(t)

		token, err := authenticator.Login("admin", "pw")
		require.NoError(t, err)

		clk.Advance(2 * time.Hour)

		resp := api.Get("/admin", "Cookie: token="+token)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("forged session is rejected", func(t *testing.T) {
		api, _, clk := setupAuthAPI(t)

		forged, err := auth.NewSigner([]byte("other-secret"), clk).Issue("admin")
		require.NoError(t, err)

		resp := api.Get("/admin", "Cookie: token="+forged)

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("api key header admits api operations", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Post("/api", "X-API-Key: "+testAPIKey)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, auth.MethodAPIKey, decodePrincipal(t, resp.Body.Bytes()).Method)
	})

	t.Run("bearer api key admits api operations", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Post("/api", "Authorization: Bearer "+testAPIKey)

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("session admits api operations", func(t *testing.T) {
		api, authenticator, _ := setupAuthAPI(t)

		token, err := authenticator.Login("admin", "pw")
		require.NoError(t, err)

		resp := api.Post("/api", "Cookie: token="+token)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, auth.MethodSession, decodePrincipal(t, resp.Body.Bytes()).Method)
	})

	t.Run("wrong api key is rejected", func(t *testing.T) {
		api, _, _ := setupAuthAPI(t)

		resp := api.Post("/api", "X-API-Key: nope")

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Contains(t, resp.Body.String(), "provide valid API key")
	})
}
