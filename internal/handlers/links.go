package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/pages"
	"github.com/serroba/shortlink/internal/safety"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

const htmlContentType = "text/html;charset=UTF-8"

// LinkHandler creates and resolves short links.
type LinkHandler struct {
	errorMapper

	service    *shortener.Service
	renderer   pages.Renderer
	checker    safety.Checker
	publishers *events.Publishers
	baseURL    string
	noReferrer bool
}

// LinkHandlerConfig holds the presentation switches of a LinkHandler.
type LinkHandlerConfig struct {
	// BaseURL prefixes short keys in API responses.
	BaseURL string
	// NoReferrer serves an interstitial page instead of a redirect so the
	// target does not see the short link as referrer.
	NoReferrer bool
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	service *shortener.Service,
	renderer pages.Renderer,
	checker safety.Checker,
	publishers *events.Publishers,
	cfg LinkHandlerConfig,
	clk clock.Clock,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		errorMapper: errorMapper{
			publishInconsistent: publishers.Inconsistent,
			clock:               clk,
			logger:              logger,
		},
		service:    service,
		renderer:   renderer,
		checker:    checker,
		publishers: publishers,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		noReferrer: cfg.NoReferrer,
	}
}

// Shorten handles POST / and answers with the key path.
func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	result, err := h.shorten(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &ShortenResponse{}
	resp.Body.Status = http.StatusOK
	resp.Body.Key = "/" + string(result.Link.Key)

	return resp, nil
}

// ShortenAPI handles POST /api/shorten for external tools.
func (h *LinkHandler) ShortenAPI(ctx context.Context, req *ShortenRequest) (*APIShortenResponse, error) {
	result, err := h.shorten(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &APIShortenResponse{}
	resp.Body.Success = true
	resp.Body.Data = ShortenData{
		ShortURL:    fmt.Sprintf("%s/%s", h.baseURL, result.Link.Key),
		ShortCode:   string(result.Link.Key),
		OriginalURL: result.Link.URL,
	}

	return resp, nil
}

func (h *LinkHandler) shorten(ctx context.Context, req *ShortenRequest) (*shortener.Result, error) {
	result, err := h.service.Shorten(ctx, shortener.Request{
		URL:       req.Body.URL,
		CustomKey: req.Body.Custom,
	})
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &events.LinkCreatedEvent{
		ID:        uuid.NewString(),
		Key:       string(result.Link.Key),
		URL:       result.Link.URL,
		Custom:    strings.TrimSpace(req.Body.Custom) != "",
		Reused:    result.Reused,
		CreatedAt: result.Link.CreatedAt,
		ExpiresAt: result.Link.ExpiresAt,
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Principal: principalName(ctx),
	}

	if err = h.publishers.Created(ctx, event); err != nil {
		h.logger.Error("failed to publish link created event",
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}

	return result, nil
}

// Resolve handles GET /{key}. The incoming query string is carried over to
// the target. Unsafe targets and the no-referrer mode get an HTML page
// instead of a redirect.
func (h *LinkHandler) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	target, err := h.service.Resolve(ctx, shortener.Key(req.Key))
	if errors.Is(err, shortener.ErrNotFound) {
		return h.page(http.StatusNotFound, pages.NotFound, "")
	}

	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}

	target = appendQuery(target, RequestMetaFromContext(ctx).RawQuery)

	if h.unsafe(ctx, target) {
		return h.page(http.StatusOK, pages.Unsafe, target)
	}

	if h.noReferrer {
		return h.page(http.StatusOK, pages.NoReferrer, target)
	}

	return &ResolveResponse{
		Status:   http.StatusFound,
		Location: target,
	}, nil
}

// unsafe reports a positive verdict only. A failed check lets the redirect
// through.
func (h *LinkHandler) unsafe(ctx context.Context, target string) bool {
	verdict, err := h.checker.Check(ctx, target)
	if err != nil {
		h.logger.Warn("safety check failed, allowing redirect",
			zap.String("target", target),
			zap.Error(err),
		)

		return false
	}

	return verdict == safety.Unsafe
}

func (h *LinkHandler) page(status int, page pages.Page, target string) (*ResolveResponse, error) {
	body, err := h.renderer.Render(page, target)
	if err != nil {
		h.logger.Error("failed to render page", zap.String("page", string(page)), zap.Error(err))

		return nil, huma.Error500InternalServerError(msgInternal)
	}

	return &ResolveResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}, nil
}

// appendQuery adds rawQuery to target, joining with & when target already
// has a query.
func appendQuery(target, rawQuery string) string {
	if rawQuery == "" {
		return target
	}

	switch {
	case strings.HasSuffix(target, "?"), strings.HasSuffix(target, "&"):
		return target + rawQuery
	case strings.Contains(target, "?"):
		return target + "&" + rawQuery
	}

	return target + "?" + rawQuery
}

func principalName(ctx context.Context) string {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return ""
	}

	if p.Username != "" {
		return p.Username
	}

	return string(p.Method)
}
