package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/handlers"
	"github.com/serroba/shortlink/internal/keygen"
	"github.com/serroba/shortlink/internal/middleware"
	"github.com/serroba/shortlink/internal/pages"
	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/safety"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAPIKey   = "test-api-key"
	testBaseURL  = "http://localhost:8888"
	testURL      = "https://example.com/very/long/path"
	apiKeyHeader = "X-API-Key: " + testAPIKey
)

type fixtureOptions struct {
	kv         shortener.KV
	checker    safety.Checker
	dedup      bool
	noReferrer bool
	rateLimit  int64
}

type fixture struct {
	api    humatest.TestAPI
	auth   *auth.Authenticator
	clock  *clock.Mock
	events *eventRecorder
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()

	if opts.kv == nil {
		opts.kv = store.NewMemoryKV(time.Minute)
	}

	if opts.checker == nil {
		opts.checker = safety.Disabled{}
	}

	logger := zap.NewNop()
	clk := clock.NewMock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	gen, err := keygen.New(keygen.DefaultLength)
	require.NoError(t, err)

	renderer, err := pages.NewTemplateRenderer("")
	require.NoError(t, err)

	links := shortener.NewLinkStore(opts.kv, time.Hour)
	index := shortener.NewContentIndex(opts.kv, time.Hour)
	service := shortener.NewService(links, index, gen, shortener.Policy{
		Dedup:       opts.dedup,
		AllowCustom: true,
	}, clk, logger)
	catalog := shortener.NewCatalog(links, index, 0, 0, logger)

	signer := auth.NewSigner([]byte("test-secret"), clk)
	authenticator := auth.NewAuthenticator(signer, auth.Credentials{Username: "admin", Password: "pw"},
		testAPIKey, auth.DefaultMaxAge, clk)

	recorder := &eventRecorder{}
	publishers := recorder.publishers()

	_, api := humatest.New(t)
	api.UseMiddleware(middleware.RequestMeta(api))

	if opts.rateLimit > 0 {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(clk), opts.rateLimit, time.Minute)
		api.UseMiddleware(middleware.RateLimiter(api, limiter, logger))
	}

	api.UseMiddleware(middleware.Authenticate(api, authenticator, logger))

	handlers.RegisterRoutes(api,
		handlers.NewLinkHandler(service, renderer, opts.checker, publishers, handlers.LinkHandlerConfig{
			BaseURL:    testBaseURL,
			NoReferrer: opts.noReferrer,
		}, clk, logger),
		handlers.NewSessionHandler(authenticator, logger),
		handlers.NewAdminHandler(catalog, publishers, clk, logger),
	)

	return &fixture{api: api, auth: authenticator, clock: clk, events: recorder}
}

// shorten creates a link through POST / and returns its key.
func (f *fixture) shorten(t *testing.T, target string) string {
	t.Helper()

	resp := f.api.Post("/", apiKeyHeader, map[string]any{"url": target})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	body := decode(t, resp)

	key, ok := body["key"].(string)
	require.True(t, ok)

	return key[1:]
}

// sessionHeader logs in and returns a Cookie header for the session.
func (f *fixture) sessionHeader(t *testing.T) string {
	t.Helper()

	token, err := f.auth.Login("admin", "pw")
	require.NoError(t, err)

	return "Cookie: " + auth.CookieName + "=" + token
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	return body
}
