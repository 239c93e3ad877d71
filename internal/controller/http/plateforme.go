package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/plateforme/entity"
	"github.com/vadim/neo-studio/internal/httpx/response"
)

// maxMetaSize bounds the body of PUT /plateformes/{id}/meta
const maxMetaSize = 64 << 10

// PlateformePolicy defines the interface for platform connection operations
type PlateformePolicy interface {
	Connections(ctx context.Context) ([]entity.Connexion, error)
	Statuses(ctx context.Context, names []string) ([]entity.Status, error)
	Disconnect(ctx context.Context, id common.ID) error
	UpdateMeta(ctx context.Context, id common.ID, meta json.RawMessage) (*entity.Connexion, error)
	RefreshToken(ctx context.Context, id common.ID) (*entity.Connexion, error)
	CheckToken(ctx context.Context, id common.ID) (*entity.TokenCheck, error)
}

// PlateformeHandler handles HTTP requests for platform connections
type PlateformeHandler struct {
	policy       PlateformePolicy
	defaultNames []string
}

// NewPlateformeHandler creates a new platform handler. defaultNames are the
// platforms reported by /plateformes/status when none are requested.
func NewPlateformeHandler(p PlateformePolicy, defaultNames []string) *PlateformeHandler {
	return &PlateformeHandler{policy: p, defaultNames: defaultNames}
}

// RegisterRoutes registers platform routes
func (h *PlateformeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/plateformes", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/status", h.Status())
		r.Delete("/{id}", h.Disconnect())
		r.Put("/{id}/meta", h.UpdateMeta())
		r.Put("/{id}/token", h.RefreshToken())
		r.Get("/{id}/check-token", h.CheckToken())
	})
}

// List handles GET /plateformes
func (h *PlateformeHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conns, err := h.policy.Connections(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]any{
			"connexions": conns,
			"total":      len(conns),
		})
	}
}

// Status handles GET /plateformes/status?names=X,LinkedIn
func (h *PlateformeHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := splitNames(r.URL.Query().Get("names"))
		if len(names) == 0 {
			names = h.defaultNames
		}

		statuses, err := h.policy.Statuses(r.Context(), names)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, statuses)
	}
}

// Disconnect handles DELETE /plateformes/{id}
func (h *PlateformeHandler) Disconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.policy.Disconnect(r.Context(), pathID(r)); err != nil {
			handleDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// UpdateMeta handles PUT /plateformes/{id}/meta
func (h *PlateformeHandler) UpdateMeta() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxMetaSize))
		if err != nil {
			response.BadRequest(w, "failed to read body")
			return
		}

		conn, err := h.policy.UpdateMeta(r.Context(), pathID(r), json.RawMessage(body))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, conn)
	}
}

// RefreshToken handles PUT /plateformes/{id}/token
func (h *PlateformeHandler) RefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.policy.RefreshToken(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, conn)
	}
}

// CheckToken handles GET /plateformes/{id}/check-token
func (h *PlateformeHandler) CheckToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		check, err := h.policy.CheckToken(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, check)
	}
}

func splitNames(s string) []string {
	var out []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
