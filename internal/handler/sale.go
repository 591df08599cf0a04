package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avetra/sales-api/internal/domain/sale"
)

// saleItemRequest is the wire shape of one item in a create or add-item call.
type saleItemRequest struct {
	ProductID          uuid.UUID       `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
}

func (r saleItemRequest) input() sale.ItemInput {
	return sale.ItemInput{
		ProductID:          r.ProductID,
		ProductName:        r.ProductName,
		ProductDescription: r.ProductDescription,
		Quantity:           r.Quantity,
		UnitPrice:          r.UnitPrice,
	}
}

type createSaleRequest struct {
	SaleNumber    string            `json:"saleNumber"`
	SaleDate      time.Time         `json:"saleDate"`
	CustomerID    uuid.UUID         `json:"customerId"`
	CustomerName  string            `json:"customerName"`
	CustomerEmail string            `json:"customerEmail"`
	BranchID      uuid.UUID         `json:"branchId"`
	BranchName    string            `json:"branchName"`
	Items         []saleItemRequest `json:"items"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapSaleError(w, err)
		return
	}

	items := make([]sale.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.input()
	}

	created, err := h.sales.Create(r.Context(), sale.CreateInput{
		SaleNumber:    req.SaleNumber,
		SaleDate:      req.SaleDate,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		BranchID:      req.BranchID,
		BranchName:    req.BranchName,
		Items:         items,
	})
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, created)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "sale id must be a UUID")
		return
	}

	sl, err := h.sales.Get(r.Context(), id)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	req, err := parsePage(r)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}
	params, err := saleFilterParams(r)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	page, err := h.sales.List(r.Context(), params, req)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, page)
}

// saleFilterParams reads the optional sale search parameters, validating range
// pairs before they are compiled.
func saleFilterParams(r *http.Request) (sale.FilterParams, error) {
	var params sale.FilterParams
	var err error

	params.SaleNumber = trimParam(r, "saleNumber")
	params.CustomerName = trimParam(r, "customerName")
	params.CustomerEmail = trimParam(r, "customerEmail")
	params.BranchName = trimParam(r, "branchName")
	params.Status = trimParam(r, "status")

	if params.CustomerID, err = queryUUID(r, "customerId"); err != nil {
		return params, err
	}
	if params.BranchID, err = queryUUID(r, "branchId"); err != nil {
		return params, err
	}
	if params.MinSaleDate, err = queryTime(r, "_minSaleDate"); err != nil {
		return params, err
	}
	if params.MaxSaleDate, err = queryTime(r, "_maxSaleDate"); err != nil {
		return params, err
	}
	if params.MinTotalAmount, err = queryDecimal(r, "_minTotalAmount"); err != nil {
		return params, err
	}
	if params.MaxTotalAmount, err = queryDecimal(r, "_maxTotalAmount"); err != nil {
		return params, err
	}

	if err := checkRange("SaleDate", params.MinSaleDate, params.MaxSaleDate, timeLess); err != nil {
		return params, err
	}
	if err := checkRange("TotalAmount", params.MinTotalAmount, params.MaxTotalAmount, decimalLess); err != nil {
		return params, err
	}

	return params, nil
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "sale id must be a UUID")
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			h.mapSaleError(w, err)
			return
		}
	}

	sl, err := h.sales.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "sale id must be a UUID")
		return
	}

	if err := h.sales.Delete(r.Context(), id); err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) addSaleItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "sale id must be a UUID")
		return
	}

	var req saleItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapSaleError(w, err)
		return
	}

	sl, err := h.sales.AddItem(r.Context(), id, req.input())
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

type updateItemRequest struct {
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

func (h *Handler) updateSaleItem(w http.ResponseWriter, r *http.Request) {
	saleID, itemID, ok := h.salePathIDs(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapSaleError(w, err)
		return
	}
	if req.Quantity == nil && req.UnitPrice == nil {
		h.respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	sl, err := h.sales.UpdateItem(r.Context(), saleID, itemID, req.Quantity, req.UnitPrice)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

func (h *Handler) removeSaleItem(w http.ResponseWriter, r *http.Request) {
	saleID, itemID, ok := h.salePathIDs(w, r)
	if !ok {
		return
	}

	sl, err := h.sales.RemoveItem(r.Context(), saleID, itemID)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

func (h *Handler) cancelSaleItem(w http.ResponseWriter, r *http.Request) {
	saleID, itemID, ok := h.salePathIDs(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			h.mapSaleError(w, err)
			return
		}
	}

	sl, err := h.sales.CancelItem(r.Context(), saleID, itemID, req.Reason)
	if err != nil {
		h.mapSaleError(w, err)
		return
	}

	h.respond(w, http.StatusOK, sl)
}

func (h *Handler) salePathIDs(w http.ResponseWriter, r *http.Request) (saleID, itemID uuid.UUID, ok bool) {
	saleID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "sale id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = pathID(r, "itemId")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "item id must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return saleID, itemID, true
}

// mapSaleError converts domain errors to HTTP error responses.
func (h *Handler) mapSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sale.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "sale not found")
		return
	case errors.Is(err, sale.ErrItemNotFound):
		h.respondError(w, http.StatusNotFound, "sale item not found")
		return
	case errors.Is(err, sale.ErrVersionConflict):
		h.respondError(w, http.StatusConflict, "sale was modified concurrently, retry")
		return
	}

	var invalidArg *sale.InvalidArgumentError
	if errors.As(err, &invalidArg) {
		h.respondError(w, http.StatusBadRequest, invalidArg.Error())
		return
	}

	var invalidState *sale.InvalidStateError
	if errors.As(err, &invalidState) {
		h.respondError(w, http.StatusConflict, invalidState.Error())
		return
	}

	var exceeded *sale.QuantityExceededError
	if errors.As(err, &exceeded) {
		h.respondError(w, http.StatusUnprocessableEntity, exceeded.Error())
		return
	}

	h.lg.Error("request failed", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "internal error")
}
