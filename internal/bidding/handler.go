// internal/bidding/handler.go
package bidding

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"leauction/internal/auction"
	"leauction/internal/clock"
	"leauction/internal/httpx"
	"leauction/internal/identity"
)

type Handler struct {
	service Service
	jwt     identity.JWT
	clock   clock.Clock
}

func NewHandler(service Service, jwt identity.JWT, clk clock.Clock) *Handler {
	return &Handler{service: service, jwt: jwt, clock: clk}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/item/{itemID}", h.handleListBids)
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(h.jwt))
		r.Post("/item/{itemID}", h.handlePlaceBid)
		r.Get("/my", h.handleMyBidItems)
	})
	return r
}

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	bidderID, _ := identity.UserIDFromContext(r.Context())
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "malformed request body")
		return
	}

	bid, item, err := h.service.PlaceBid(r.Context(), itemID, bidderID, req.Amount, h.clock.Now())
	if err != nil {
		writeBidError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"bid":  bid,
		"item": item.ViewFor(bidderID),
	})
}

func (h *Handler) handleListBids(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.WriteErrors(w, http.StatusBadRequest, "invalid item id")
		return
	}

	bids, err := h.service.ListBids(r.Context(), itemID)
	if err != nil {
		writeBidError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

func (h *Handler) handleMyBidItems(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity.UserIDFromContext(r.Context())

	items, err := h.service.MyBidItems(r.Context(), userID)
	if err != nil {
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entry struct {
		auction.View
		MyMaxBid decimal.Decimal `json:"my_max_bid"`
		Leading  bool            `json:"is_leading"`
		Winner   bool            `json:"is_winner"`
	}
	out := make([]entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry{
			View:     it.Item.ViewFor(userID),
			MyMaxBid: it.MyMaxBid,
			Leading:  it.Leading,
			Winner:   it.Winner,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

// writeBidError maps bid protocol failures to HTTP statuses.
func writeBidError(w http.ResponseWriter, err error) {
	var tooLow *BidTooLowError
	switch {
	case errors.Is(err, auction.ErrNotFound):
		httpx.WriteErrors(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auction.ErrForbidden):
		httpx.WriteErrors(w, http.StatusForbidden, "you cannot bid on your own item")
	case errors.Is(err, auction.ErrInvalidState):
		httpx.WriteErrors(w, http.StatusConflict, "this item is not open for bidding")
	case errors.As(err, &tooLow):
		httpx.WriteErrors(w, http.StatusUnprocessableEntity, tooLow.Error())
	case errors.Is(err, errBidNotPositive):
		httpx.WriteErrors(w, http.StatusBadRequest, err.Error())
	default:
		httpx.WriteErrors(w, http.StatusInternalServerError, err.Error())
	}
}
