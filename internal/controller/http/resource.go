package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/resource"
	"github.com/vadim/neo-studio/internal/httpx/response"
)

// ResourceStore defines the CRUD operations of one entity family
type ResourceStore[T resource.Entity] interface {
	Name() string
	Search(ctx context.Context, query string) ([]T, error)
	Get(ctx context.Context, id common.ID) (*T, error)
	Create(ctx context.Context, item T) (*T, error)
	Update(ctx context.Context, id common.ID, item T) (*T, error)
	Delete(ctx context.Context, id common.ID) error
}

// ResourceHandler serves the same CRUD routes for any entity family
type ResourceHandler[T resource.Entity] struct {
	store ResourceStore[T]
	extra []func(r chi.Router)
}

// NewResourceHandler creates a handler mounted under /{store.Name()}.
// extra registers family-specific routes on the same subrouter.
func NewResourceHandler[T resource.Entity](store ResourceStore[T], extra ...func(r chi.Router)) *ResourceHandler[T] {
	return &ResourceHandler[T]{store: store, extra: extra}
}

// RegisterRoutes registers the entity family routes
func (h *ResourceHandler[T]) RegisterRoutes(r chi.Router) {
	r.Route("/"+h.store.Name(), func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Create())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		for _, register := range h.extra {
			register(r)
		}
	})
}

// List handles GET /{resource}?q=
func (h *ResourceHandler[T]) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.store.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, map[string]any{
			h.store.Name(): items,
			"total":        len(items),
		})
	}
}

// Get handles GET /{resource}/{id}
func (h *ResourceHandler[T]) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := h.store.Get(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, item)
	}
}

// Create handles POST /{resource}
func (h *ResourceHandler[T]) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item T
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		created, err := h.store.Create(r.Context(), item)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, created)
	}
}

// Update handles PUT /{resource}/{id}
func (h *ResourceHandler[T]) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item T
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		updated, err := h.store.Update(r.Context(), pathID(r), item)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, updated)
	}
}

// Delete handles DELETE /{resource}/{id}
func (h *ResourceHandler[T]) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Delete(r.Context(), pathID(r)); err != nil {
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// RegisterResources mounts every entity family of the set
func RegisterResources(r chi.Router, set *resource.Set) {
	NewResourceHandler[resource.Projet](set.Projets).RegisterRoutes(r)
	NewResourceHandler[resource.Template](set.Templates, func(r chi.Router) {
		r.Get("/{id}/variables", templateVariables(set.Templates))
	}).RegisterRoutes(r)
	NewResourceHandler[resource.Prompt](set.Prompts).RegisterRoutes(r)
	NewResourceHandler[resource.ModelIA](set.ModelIA).RegisterRoutes(r)
	NewResourceHandler[resource.Utilisateur](set.Utilisateurs).RegisterRoutes(r)
	NewResourceHandler[resource.Historique](set.Historiques).RegisterRoutes(r)
	NewResourceHandler[resource.Contenu](set.Contenus).RegisterRoutes(r)
}

// templateVariables handles GET /templates/{id}/variables
func templateVariables(store ResourceStore[resource.Template]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tmpl, err := store.Get(r.Context(), pathID(r))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		vars := tmpl.Variables()
		if vars == nil {
			vars = []string{}
		}
		response.OK(w, map[string]any{"variables": vars})
	}
}
