// Package handler exposes the domain over a JSON HTTP API. Handlers are thin:
// they parse and validate request parameters, delegate to the domain services
// and repositories, and map domain errors onto HTTP statuses.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avetra/sales-api/internal/domain/cart"
	"github.com/avetra/sales-api/internal/domain/product"
	"github.com/avetra/sales-api/internal/domain/sale"
	"github.com/avetra/sales-api/internal/domain/user"
	"github.com/avetra/sales-api/internal/query"
)

// Handler serves the sales API, delegating business logic to the per-entity
// domain services.
type Handler struct {
	sales    *sale.Service
	products *product.Service
	users    *user.Service
	carts    *cart.Service
	lg       *zap.Logger
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	sales *sale.Service,
	products *product.Service,
	users *user.Service,
	carts *cart.Service,
	lg *zap.Logger,
) *Handler {
	return &Handler{
		sales:    sales,
		products: products,
		users:    users,
		carts:    carts,
		lg:       lg.Named("handler"),
	}
}

// Routes registers every endpoint on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sales", h.createSale)
	mux.HandleFunc("GET /api/sales", h.listSales)
	mux.HandleFunc("GET /api/sales/{id}", h.getSale)
	mux.HandleFunc("DELETE /api/sales/{id}", h.deleteSale)
	mux.HandleFunc("POST /api/sales/{id}/cancel", h.cancelSale)
	mux.HandleFunc("POST /api/sales/{id}/items", h.addSaleItem)
	mux.HandleFunc("PATCH /api/sales/{id}/items/{itemId}", h.updateSaleItem)
	mux.HandleFunc("DELETE /api/sales/{id}/items/{itemId}", h.removeSaleItem)
	mux.HandleFunc("POST /api/sales/{id}/items/{itemId}/cancel", h.cancelSaleItem)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products/categories", h.listProductCategories)
	mux.HandleFunc("GET /api/products/category/{category}", h.listProductsByCategory)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)

	mux.HandleFunc("GET /api/users", h.listUsers)
	mux.HandleFunc("POST /api/users", h.createUser)
	mux.HandleFunc("GET /api/users/{id}", h.getUser)
	mux.HandleFunc("PUT /api/users/{id}", h.updateUser)
	mux.HandleFunc("DELETE /api/users/{id}", h.deleteUser)

	mux.HandleFunc("GET /api/carts", h.listCarts)
	mux.HandleFunc("POST /api/carts", h.createCart)
	mux.HandleFunc("GET /api/carts/{id}", h.getCart)
	mux.HandleFunc("PUT /api/carts/{id}", h.updateCart)
	mux.HandleFunc("DELETE /api/carts/{id}", h.deleteCart)
}

// errorResponse is the shared error body for all endpoints.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.lg.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respond(w, status, errorResponse{Code: status, Message: message})
}

// pathID parses the named path segment as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

// parsePage reads the _page, _size and _order query parameters. Out-of-range
// values are clamped later by PageRequest.Normalize; only unparseable numbers
// fail here.
func parsePage(r *http.Request) (query.PageRequest, error) {
	req := query.PageRequest{OrderBy: r.URL.Query().Get("_order")}

	if raw := r.URL.Query().Get("_page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, &sale.InvalidArgumentError{Reason: "_page must be an integer"}
		}
		req.Page = page
	}
	if raw := r.URL.Query().Get("_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, &sale.InvalidArgumentError{Reason: "_size must be an integer"}
		}
		req.Size = size
	}

	return req, nil
}

// queryTime parses an optional RFC 3339 timestamp parameter.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &sale.InvalidArgumentError{Reason: name + " must be an RFC 3339 timestamp"}
	}
	return &t, nil
}

// queryDecimal parses an optional decimal parameter.
func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &sale.InvalidArgumentError{Reason: name + " must be a decimal number"}
	}
	return &d, nil
}

// queryInt parses an optional integer parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &sale.InvalidArgumentError{Reason: name + " must be an integer"}
	}
	return &n, nil
}

// queryUUID parses an optional UUID parameter.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &sale.InvalidArgumentError{Reason: name + " must be a UUID"}
	}
	return id, nil
}

// decodeBody decodes the JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &sale.InvalidArgumentError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}

// checkRange rejects an inverted [min, max] pair before it reaches the filter
// compiler.
func checkRange[T any](name string, minVal, maxVal *T, less func(a, b T) bool) error {
	if minVal != nil && maxVal != nil && less(*maxVal, *minVal) {
		return &sale.InvalidArgumentError{Reason: "_min" + name + " cannot exceed _max" + name}
	}
	return nil
}

func timeLess(a, b time.Time) bool { return a.Before(b) }

func decimalLess(a, b decimal.Decimal) bool { return a.LessThan(b) }

func intLess(a, b int) bool { return a < b }

// trimParam strips surrounding whitespace from a textual query parameter.
func trimParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
