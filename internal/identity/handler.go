// internal/identity/handler.go
package identity

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leauction/internal/clock"
	"leauction/internal/httpx"
)

type Handler struct {
	service Service
	jwt     JWT
	clock   clock.Clock
}

func NewHandler(service Service, jwt JWT, clk clock.Clock) *Handler {
	return &Handler{service: service, jwt: jwt, clock: clk}
}

// Routes mounts register, login and the authenticated profile endpoint.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.With(Middleware(h.jwt)).Get("/me", h.handleMe)
	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Nickname, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			httpx.WriteErrors(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrRateLimited):
			httpx.WriteErrors(w, http.StatusTooManyRequests, err.Error())
		default:
			httpx.WriteErrors(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	token, err := h.jwt.Sign(user.ID, h.clock.Now())
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			httpx.WriteErrors(w, http.StatusTooManyRequests, err.Error())
			return
		}
		httpx.WriteErrors(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.jwt.Sign(user.ID, h.clock.Now())
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		httpx.WriteErrors(w, http.StatusNotFound, "user not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
