package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-studio/internal/httpx/response"
	"github.com/vadim/neo-studio/internal/httpx/upstream/backend"
	"github.com/vadim/neo-studio/internal/validation"
)

// Authenticator defines the session operations of the backend client
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*backend.User, error)
	Logout(ctx context.Context) error
	Session() *backend.Session
}

// AuthHandler handles login and logout of the studio session
type AuthHandler struct {
	auth Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login())
		r.Post("/logout", h.Logout())
		r.Get("/me", h.Me())
	})
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if err := validation.Struct(req); err != nil {
			handleDomainError(w, err)
			return
		}

		user, err := h.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, user)
	}
}

// Logout handles POST /auth/logout. The local session is cleared even when
// the backend call fails.
func (h *AuthHandler) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.auth.Logout(r.Context()); err != nil {
			handleDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// Me handles GET /auth/me
func (h *AuthHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.auth.Session().User()
		if user == nil {
			response.Unauthorized(w, "not logged in")
			return
		}
		response.OK(w, user)
	}
}
