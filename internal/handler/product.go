package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/avetra/sales-api/internal/domain/product"
)

// productRequest is the wire shape of a create or replace call. Status is
// honored only on replace; new entries always start active.
type productRequest struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Status      string          `json:"status"`
	Stock       int             `json:"stock"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapProductError(w, err)
		return
	}

	p, err := h.products.Create(r.Context(), product.CreateInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       req.Stock,
	})
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "product id must be a UUID")
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "product id must be a UUID")
		return
	}

	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		h.mapProductError(w, err)
		return
	}

	p, err := h.products.Update(r.Context(), id, product.UpdateInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
		Status:      req.Status,
		Stock:       req.Stock,
	})
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "product id must be a UUID")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusNoContent, nil)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	req, err := parsePage(r)
	if err != nil {
		h.mapProductError(w, err)
		return
	}
	params, err := productFilterParams(r)
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	page, err := h.products.List(r.Context(), params, req)
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusOK, page)
}

func (h *Handler) listProductCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		h.mapProductError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	h.respond(w, http.StatusOK, categories)
}

func (h *Handler) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	req, err := parsePage(r)
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	page, err := h.products.ListByCategory(r.Context(), r.PathValue("category"), req)
	if err != nil {
		h.mapProductError(w, err)
		return
	}

	h.respond(w, http.StatusOK, page)
}

func productFilterParams(r *http.Request) (product.FilterParams, error) {
	var params product.FilterParams
	var err error

	params.Title = trimParam(r, "title")
	params.Category = trimParam(r, "category")
	params.Status = trimParam(r, "status")

	if params.MinPrice, err = queryDecimal(r, "_minPrice"); err != nil {
		return params, err
	}
	if params.MaxPrice, err = queryDecimal(r, "_maxPrice"); err != nil {
		return params, err
	}
	if params.MinStock, err = queryInt(r, "_minStock"); err != nil {
		return params, err
	}
	if params.MaxStock, err = queryInt(r, "_maxStock"); err != nil {
		return params, err
	}

	if err := checkRange("Price", params.MinPrice, params.MaxPrice, decimalLess); err != nil {
		return params, err
	}
	if err := checkRange("Stock", params.MinStock, params.MaxStock, intLess); err != nil {
		return params, err
	}

	return params, nil
}

// mapProductError converts product domain errors to HTTP error responses,
// deferring to the shared mapper for request-level errors.
func (h *Handler) mapProductError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	case errors.Is(err, product.ErrVersionConflict):
		h.respondError(w, http.StatusConflict, "product was modified concurrently, retry")
		return
	}

	var invalidArg *product.InvalidArgumentError
	if errors.As(err, &invalidArg) {
		h.respondError(w, http.StatusBadRequest, invalidArg.Error())
		return
	}

	h.mapSaleError(w, err)
}
