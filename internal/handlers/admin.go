package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlink/internal/clock"
	"github.com/serroba/shortlink/internal/events"
	"github.com/serroba/shortlink/internal/messaging"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// AdminHandler serves the session-only link management API.
type AdminHandler struct {
	errorMapper

	catalog       *shortener.Catalog
	publishDelete messaging.Publish[events.LinkDeletedEvent]
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(catalog *shortener.Catalog, publishers *events.Publishers, clk clock.Clock, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		errorMapper: errorMapper{
			publishInconsistent: publishers.Inconsistent,
			clock:               clk,
			logger:              logger,
		},
		catalog:       catalog,
		publishDelete: publishers.Deleted,
	}
}

// ListLinks returns one page of links, newest first.
func (h *AdminHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	page, err := h.catalog.List(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Success = true
	resp.Body.Links = make([]LinkItem, 0, len(page.Links))

	for _, link := range page.Links {
		item := LinkItem{URL: link.URL, Short: string(link.Key)}
		if !link.CreatedAt.IsZero() {
			item.Created = link.CreatedAt.UTC().Format(time.RFC3339Nano)
		}

		resp.Body.Links = append(resp.Body.Links, item)
	}

	p := page.Pagination
	resp.Body.Pagination = PaginationBody{
		CurrentPage:     p.CurrentPage,
		TotalPages:      p.TotalPages,
		TotalLinks:      p.TotalLinks,
		Limit:           p.Limit,
		HasNextPage:     p.HasNextPage,
		HasPreviousPage: p.HasPreviousPage,
	}

	return resp, nil
}

// DeleteLink removes a link and its metadata.
func (h *AdminHandler) DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*DeleteLinkResponse, error) {
	if err := h.catalog.Delete(ctx, shortener.Key(req.Key)); err != nil {
		return nil, h.toHTTPError(ctx, err)
	}

	event := &events.LinkDeletedEvent{
		ID:        uuid.NewString(),
		Key:       req.Key,
		DeletedAt: h.clock.Now(),
		DeletedBy: principalName(ctx),
	}

	if err := h.publishDelete(ctx, event); err != nil {
		h.logger.Error("failed to publish link deleted event",
			zap.String("key", event.Key),
			zap.Error(err),
		)
	}

	resp := &DeleteLinkResponse{}
	resp.Body.Success = true
	resp.Body.Message = "Delete successful"

	return resp, nil
}
