package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
	"github.com/vadim/neo-studio/internal/domain/publication/policy"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/httpx/response"
)

// PublicationPolicy defines the interface for publication operations
// Interface is defined by consumer (handler), not provider (policy)
type PublicationPolicy interface {
	Search(ctx context.Context, in policy.SearchInput) ([]entity.Publication, error)
	Get(ctx context.Context, id common.ID) (*entity.Publication, error)
	View(ctx context.Context) (selector.View, error)
	Loading() policy.Loading
	Refresh(ctx context.Context) error
	Create(ctx context.Context, in entity.CreateInput) (*entity.Publication, error)
	Update(ctx context.Context, id common.ID, patch entity.Patch) (*entity.Publication, error)
	Delete(ctx context.Context, id common.ID, confirmer policy.Confirmer) error
	Publish(ctx context.Context, id common.ID) (*entity.Publication, error)
	Schedule(ctx context.Context, id common.ID, at time.Time) (*entity.Publication, error)
	Cancel(ctx context.Context, id common.ID) (*entity.Publication, error)
}

// PublicationHandler handles HTTP requests for publications
type PublicationHandler struct {
	policy PublicationPolicy
}

// NewPublicationHandler creates a new publication handler
func NewPublicationHandler(p PublicationPolicy) *PublicationHandler {
	return &PublicationHandler{policy: p}
}

// RegisterRoutes registers publication routes
func (h *PublicationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/publications", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Create())
		r.Get("/view", h.View())
		r.Post("/refresh", h.Refresh())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		r.Post("/{id}/publish", h.Publish())
		r.Post("/{id}/schedule", h.Schedule())
		r.Post("/{id}/cancel", h.Cancel())
	})
}

// ListResponse represents the response for listing publications
type ListResponse struct {
	Publications []entity.Publication `json:"publications"`
	Total        int                  `json:"total"`
}

// List handles GET /publications?status=&q=
func (h *PublicationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		in := policy.SearchInput{Query: q.Get("q")}
		if s := q.Get("status"); s != "" {
			status, err := entity.ParseStatus(s)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			in.Status = &status
		}

		pubs, err := h.policy.Search(r.Context(), in)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, ListResponse{Publications: pubs, Total: len(pubs)})
	}
}

// ViewResponse is the derived dashboard state with action flags
type ViewResponse struct {
	selector.View
	Loading policy.Loading `json:"loading"`
}

// View handles GET /publications/view
func (h *PublicationHandler) View() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := h.policy.View(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, ViewResponse{View: view, Loading: h.policy.Loading()})
	}
}

// Refresh handles POST /publications/refresh
func (h *PublicationHandler) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.Refresh(r.Context()); err != nil {
			handleDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// CreateRequest represents the request body for creating a publication
type CreateRequest struct {
	Title       string     `json:"titre_publication"`
	Message     string     `json:"message"`
	PlatformID  common.ID  `json:"id_plateforme"`
	ContentID   common.ID  `json:"id_contenu"`
	Mode        string     `json:"mode"` // brouillon, programme, immediat
	ScheduledAt *time.Time `json:"date_programmee,omitempty"`
}

// Create handles POST /publications
func (h *PublicationHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		mode, err := entity.ParseCreateMode(req.Mode)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		pub, err := h.policy.Create(r.Context(), entity.CreateInput{
			Title:       req.Title,
			Message:     req.Message,
			PlatformID:  req.PlatformID,
			ContentID:   req.ContentID,
			Mode:        mode,
			ScheduledAt: req.ScheduledAt,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, pub)
	}
}

// Get handles GET /publications/{id}
func (h *PublicationHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := h.policy.Get(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, pub)
	}
}

// Update handles PUT /publications/{id}. An If-Unmodified-Since header
// rejects the edit when the publication changed since it was loaded.
func (h *PublicationHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch entity.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if patch.Status != nil {
			status, err := entity.ParseStatus(string(*patch.Status))
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			patch.Status = &status
		}

		if v := r.Header.Get("If-Unmodified-Since"); v != "" {
			loadedAt, err := http.ParseTime(v)
			if err != nil {
				response.BadRequest(w, "invalid If-Unmodified-Since header")
				return
			}
			patch.LoadedAt = &loadedAt
		}

		pub, err := h.policy.Update(r.Context(), pathID(r), patch)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, pub)
	}
}

// Delete handles DELETE /publications/{id}?confirm=true. Deletion is
// irreversible and refused without explicit confirmation.
func (h *PublicationHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		confirmed := r.URL.Query().Get("confirm") == "true"

		err := h.policy.Delete(r.Context(), pathID(r), policy.ConfirmFunc(
			func(context.Context, *entity.Publication) (bool, error) {
				return confirmed, nil
			},
		))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Publish handles POST /publications/{id}/publish
func (h *PublicationHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := h.policy.Publish(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, pub)
	}
}

// ScheduleRequest represents the request body for scheduling a publication
type ScheduleRequest struct {
	ScheduledAt string `json:"date_programme"` // RFC3339 format
}

// Schedule handles POST /publications/{id}/schedule
func (h *PublicationHandler) Schedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			response.BadRequest(w, "invalid date_programme format, use RFC3339")
			return
		}

		pub, err := h.policy.Schedule(r.Context(), pathID(r), scheduledAt)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, pub)
	}
}

// Cancel handles POST /publications/{id}/cancel
func (h *PublicationHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pub, err := h.policy.Cancel(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, pub)
	}
}

func pathID(r *http.Request) common.ID {
	return common.ID(chi.URLParam(r, "id"))
}
