// internal/notification/handler.go
package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"leauction/internal/httpx"
	"leauction/internal/identity"
)

type Handler struct {
	service Service
	jwt     identity.JWT
}

func NewHandler(service Service, jwt identity.JWT) *Handler {
	return &Handler{service: service, jwt: jwt}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(identity.Middleware(h.jwt))
	r.Get("/", h.handleList)
	r.Get("/unread-count", h.handleUnreadCount)
	r.Put("/{id}/read", h.handleMarkRead)
	r.Put("/read-all", h.handleMarkAllRead)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	items, total, err := h.service.List(r.Context(), userID, page, perPage)
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": items,
		"total":         total,
	})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())

	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"unread_count": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	n, err := h.service.MarkRead(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteErrors(w, http.StatusNotFound, err.Error())
			return
		}
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notification": n})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"marked": true})
}
