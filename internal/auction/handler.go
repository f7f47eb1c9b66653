// internal/auction/handler.go
package auction

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

	r.Group(func(r chi.Router) {
		r.Use(identity.OptionalMiddleware(h.jwt))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(h.jwt))
		r.Post("/", h.handleCreate)
		r.Get("/my", h.handleMine)
		r.Put("/{id}", h.handleUpdate)
		r.Post("/{id}/publish", h.handlePublish)
		r.Post("/{id}/cancel", h.handleCancel)
		r.Delete("/{id}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sellerID, _ := identity.UserIDFromContext(r.Context())

	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	item, err := h.service.Create(r.Context(), sellerID, in)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"item": item.ViewFor(sellerID)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	status := q.Get("status")
	if status == "" {
		status = "active"
	}

	items, total, err := h.service.List(r.Context(), ListFilter{
		Status:   status,
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}

	viewerID, _ := identity.UserIDFromContext(r.Context())
	views := make([]View, 0, len(items))
	for _, item := range items {
		views = append(views, item.ViewFor(viewerID))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": views, "total": total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeItemError(w, err)
		return
	}

	viewerID, _ := identity.UserIDFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"item": item.ViewFor(viewerID)})
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	sellerID, _ := identity.UserIDFromContext(r.Context())

	items, err := h.service.ListMine(r.Context(), sellerID, Status(r.URL.Query().Get("status")))
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]View, 0, len(items))
	for _, item := range items {
		views = append(views, item.ViewFor(sellerID))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	item, err := h.service.Update(r.Context(), id, actorID, in)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"item": item.ViewFor(actorID)})
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req struct {
		DurationHours int `json:"duration_hours"`
		DurationDays  int `json:"duration_days"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}
	hours := req.DurationHours
	if hours == 0 {
		hours = req.DurationDays * 24
	}

	item, err := h.service.Publish(r.Context(), id, actorID, hours)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"item": item.ViewFor(actorID)})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.service.Cancel(r.Context(), id, actorID)
	if err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"item": item.ViewFor(actorID)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := identity.UserIDFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		writeItemError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"message": "item deleted"})
}

// writeItemError maps the auction error taxonomy to HTTP statuses.
func writeItemError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteErrors(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.WriteErrors(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrCannotCancel):
		httpx.WriteErrors(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidDuration):
		httpx.WriteErrors(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		httpx.WriteErrors(w, http.StatusBadRequest, verr.Problems...)
	default:
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
	}
}
