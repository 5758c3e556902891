package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	webhookshopify "github.com/EpicMarks/epicmarks-loyalty-sync/internal/webhooks/shopify"
)

// WebhookRoutes registers the Shopify webhook endpoint and the health probe.
type WebhookRoutes struct {
	handler *webhookshopify.Handler
	path    string
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(handler *webhookshopify.Handler, path string) *WebhookRoutes {
	if path == "" {
		path = "/webhooks/shopify"
	}
	return &WebhookRoutes{handler: handler, path: path}
}

// RegisterRoutes registers webhook endpoints. The webhook path accepts any
// method; non-POST requests get a liveness ack inside the handler.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.Any(w.path, w.handler.Handle)
	s.GET("/healthz", w.handleHealth)
}

func (w *WebhookRoutes) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
