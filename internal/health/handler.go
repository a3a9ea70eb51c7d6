package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Checker defines the interface for checking backend health.
type Checker interface {
	Ping(ctx context.Context) error
}

// Static is a Checker for backends that live in process.
type Static struct{}

func (Static) Ping(context.Context) error {
	return nil
}

// Handler reports on the link store backend.
type Handler struct {
	store   Checker
	timeout time.Duration
}

// NewHandler creates a new health handler. Each check gives the backend at
// most timeout to answer.
func NewHandler(store Checker, timeout time.Duration) *Handler {
	return &Handler{store: store, timeout: timeout}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string `json:"status" enum:"ok,degraded" doc:"Overall service status"`
		Store  string `json:"store"  enum:"healthy,unhealthy" doc:"Link store backend status"`
	}
}

// Check pings the store. A failing store degrades the status but the
// endpoint itself still answers 200.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Store = "healthy"

	if err := h.store.Ping(ctx); err != nil {
		resp.Body.Status = "degraded"
		resp.Body.Store = "unhealthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
