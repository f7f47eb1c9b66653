// internal/transaction/handler.go
package transaction

import (
	"errors"
	"net/http"

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
	r.Get("/my", h.handleListMine)
	r.Get("/{id}", h.handleGet)
	r.Get("/item/{itemID}", h.handleGetByItem)
	r.Post("/{id}/confirm", h.handleConfirm)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.service.Get(r.Context(), id, actorID)
	if err != nil {
		writeTxnError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

func (h *Handler) handleGetByItem(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	t, err := h.service.GetByItem(r.Context(), itemID, actorID)
	if err != nil {
		writeTxnError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.service.Confirm(r.Context(), id, actorID)
	if err != nil {
		writeTxnError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transaction": t})
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())

	txns, err := h.service.ListMine(r.Context(), userID)
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transactions": txns})
}

func writeTxnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteErrors(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParty):
		httpx.WriteErrors(w, http.StatusForbidden, err.Error())
	default:
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
	}
}
