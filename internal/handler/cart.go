package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avetra/sales-api/internal/domain/cart"
)

// cartRequest is the wire shape of a create or replace call. A replace swaps
// the product lines wholesale.
type cartRequest struct {
	UserID   uuid.UUID          `json:"userId"`
	Date     time.Time          `json:"date"`
	Products []cartEntryRequest `json:"products"`
}

type cartEntryRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

func (r cartRequest) input() cart.CreateInput {
	entries := make([]cart.EntryInput, len(r.Products))
	for i, e := range r.Products {
		entries[i] = cart.EntryInput{ProductID: e.ProductID, Quantity: e.Quantity}
	}
	return cart.CreateInput{UserID: r.UserID, Date: r.Date, Products: entries}
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapCartError(w, err)
		return
	}

	c, err := h.carts.Create(r.Context(), req.input())
	if err != nil {
		h.mapCartError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, c)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "cart id must be a UUID")
		return
	}

	c, err := h.carts.Get(r.Context(), id)
	if err != nil {
		h.mapCartError(w, err)
		return
	}

	h.respond(w, http.StatusOK, c)
}

func (h *Handler) updateCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "cart id must be a UUID")
		return
	}

	var req cartRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapCartError(w, err)
		return
	}

	c, err := h.carts.Update(r.Context(), id, req.input())
	if err != nil {
		h.mapCartError(w, err)
		return
	}

	h.respond(w, http.StatusOK, c)
}

func (h *Handler) deleteCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "cart id must be a UUID")
		return
	}

	if err := h.carts.Delete(r.Context(), id); err != nil {
		h.mapCartError(w, err)
		return
	}

	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listCarts(w http.ResponseWriter, r *http.Request) {
	req, err := parsePage(r)
	if err != nil {
		h.mapCartError(w, err)
		return
	}
	params, err := cartFilterParams(r)
	if err != nil {
		h.mapCartError(w, err)
		return
	}

	page, err := h.carts.List(r.Context(), params, req)
	if err != nil {
		h.mapCartError(w, err)
		return
	}

	h.respond(w, http.StatusOK, page)
}

func cartFilterParams(r *http.Request) (cart.FilterParams, error) {
	var params cart.FilterParams
	var err error

	if params.UserID, err = queryUUID(r, "userId"); err != nil {
		return params, err
	}
	if params.MinDate, err = queryTime(r, "_minDate"); err != nil {
		return params, err
	}
	if params.MaxDate, err = queryTime(r, "_maxDate"); err != nil {
		return params, err
	}

	if err := checkRange("Date", params.MinDate, params.MaxDate, timeLess); err != nil {
		return params, err
	}

	return params, nil
}

// mapCartError converts cart domain errors to HTTP error responses, deferring
// to the shared mapper for request-level errors.
func (h *Handler) mapCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "cart not found")
		return
	case errors.Is(err, cart.ErrVersionConflict):
		h.respondError(w, http.StatusConflict, "cart was modified concurrently, retry")
		return
	case errors.Is(err, cart.ErrInvalidQuantity):
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var invalidArg *cart.InvalidArgumentError
	if errors.As(err, &invalidArg) {
		h.respondError(w, http.StatusBadRequest, invalidArg.Error())
		return
	}

	h.mapSaleError(w, err)
}
