package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	notificationentity "github.com/vadim/neo-studio/internal/domain/notification/entity"
	plateformeentity "github.com/vadim/neo-studio/internal/domain/plateforme/entity"
	"github.com/vadim/neo-studio/internal/domain/publication/policy"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/httpx/response"
)

// dashboardNotifications is the number of notifications shown on the dashboard
const dashboardNotifications = 5

// PublicationViewer reads the derived publication state
type PublicationViewer interface {
	View(ctx context.Context) (selector.View, error)
	Loading() policy.Loading
}

// StatusReader reads platform connection statuses
type StatusReader interface {
	Statuses(ctx context.Context, names []string) ([]plateformeentity.Status, error)
}

// DashboardSources are the reads combined by the dashboard
type DashboardSources struct {
	Publications  PublicationViewer
	Plateformes   StatusReader
	Notifications NotificationReader
	Platforms     []string
}

// DashboardHandler serves the combined home page state in one round-trip
type DashboardHandler struct {
	src DashboardSources
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(src DashboardSources) *DashboardHandler {
	return &DashboardHandler{src: src}
}

// RegisterRoutes registers dashboard routes
func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Get())
}

// DashboardResponse is the body of GET /dashboard
type DashboardResponse struct {
	Publications  ViewResponse                      `json:"publications"`
	Plateformes   []plateformeentity.Status         `json:"plateformes"`
	Notifications []notificationentity.Notification `json:"notifications"`
}

// Get handles GET /dashboard. The three reads run concurrently; the first
// failure cancels the others.
func (h *DashboardHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp DashboardResponse
		g, ctx := errgroup.WithContext(r.Context())

		g.Go(func() error {
			view, err := h.src.Publications.View(ctx)
			if err != nil {
				return err
			}
			resp.Publications = ViewResponse{View: view, Loading: h.src.Publications.Loading()}
			return nil
		})
		g.Go(func() error {
			statuses, err := h.src.Plateformes.Statuses(ctx, h.src.Platforms)
			if err != nil {
				return err
			}
			resp.Plateformes = statuses
			return nil
		})
		g.Go(func() error {
			notifications, err := h.src.Notifications.Recent(ctx, dashboardNotifications)
			if err != nil {
				return err
			}
			resp.Notifications = notifications
			return nil
		})

		if err := g.Wait(); err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, resp)
	}
}
