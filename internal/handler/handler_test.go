package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avetra/sales-api/internal/domain/cart"
	"github.com/avetra/sales-api/internal/domain/product"
	"github.com/avetra/sales-api/internal/domain/sale"
	"github.com/avetra/sales-api/internal/domain/user"
	"github.com/avetra/sales-api/internal/query"
)

// --- Mock implementations ---

type mockSaleRepo struct {
	byID      map[uuid.UUID]*sale.Sale
	createErr error
	pageErr   error

	lastFilter query.Filter
	lastReq    query.PageRequest
}

func newMockSaleRepo() *mockSaleRepo {
	return &mockSaleRepo{byID: make(map[uuid.UUID]*sale.Sale)}
}

func (m *mockSaleRepo) Create(_ context.Context, s *sale.Sale) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[s.ID] = s
	return nil
}

func (m *mockSaleRepo) GetByID(_ context.Context, id uuid.UUID) (*sale.Sale, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	cp := *s
	cp.Items = append([]sale.Item(nil), s.Items...)
	return &cp, nil
}

func (m *mockSaleRepo) Replace(_ context.Context, s *sale.Sale) error {
	m.byID[s.ID] = s
	return nil
}

func (m *mockSaleRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

func (m *mockSaleRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockSaleRepo) CountFiltered(_ context.Context, _ query.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockSaleRepo) GetPage(_ context.Context, f query.Filter, req query.PageRequest) (query.PageResult[sale.Sale], error) {
	if m.pageErr != nil {
		return query.PageResult[sale.Sale]{}, m.pageErr
	}
	m.lastFilter = f
	m.lastReq = req
	req = req.Normalize()

	items := make([]sale.Sale, 0, len(m.byID))
	for _, s := range m.byID {
		items = append(items, *s)
	}
	return query.NewPageResult(items, int64(len(items)), req.Page, req.Size), nil
}

type mockProductRepo struct {
	byID       map[uuid.UUID]*product.Product
	lastFilter query.Filter
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{byID: make(map[uuid.UUID]*product.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Replace(_ context.Context, p *product.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

func (m *mockProductRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockProductRepo) CountFiltered(_ context.Context, _ query.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockProductRepo) GetPage(_ context.Context, f query.Filter, req query.PageRequest) (query.PageResult[product.Product], error) {
	m.lastFilter = f
	req = req.Normalize()
	items := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		items = append(items, *p)
	}
	return query.NewPageResult(items, int64(len(items)), req.Page, req.Size), nil
}

func (m *mockProductRepo) Categories(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var categories []string
	for _, p := range m.byID {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories, nil
}

type mockUserRepo struct {
	byID map[uuid.UUID]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: make(map[uuid.UUID]*user.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Replace(_ context.Context, u *user.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return user.ErrNotFound
	}
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

func (m *mockUserRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockUserRepo) CountFiltered(_ context.Context, _ query.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockUserRepo) GetPage(_ context.Context, _ query.Filter, req query.PageRequest) (query.PageResult[user.User], error) {
	req = req.Normalize()
	items := make([]user.User, 0, len(m.byID))
	for _, u := range m.byID {
		items = append(items, *u)
	}
	return query.NewPageResult(items, int64(len(items)), req.Page, req.Size), nil
}

type mockCartRepo struct {
	byID map[uuid.UUID]*cart.Cart
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{byID: make(map[uuid.UUID]*cart.Cart)}
}

func (m *mockCartRepo) Create(_ context.Context, c *cart.Cart) error {
	m.byID[c.ID] = c
	return nil
}

func (m *mockCartRepo) GetByID(_ context.Context, id uuid.UUID) (*cart.Cart, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, cart.ErrNotFound
	}
	cp := *c
	cp.Products = append([]cart.Entry(nil), c.Products...)
	return &cp, nil
}

func (m *mockCartRepo) Replace(_ context.Context, c *cart.Cart) error {
	if _, ok := m.byID[c.ID]; !ok {
		return cart.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.byID[id]
	delete(m.byID, id)
	return ok, nil
}

func (m *mockCartRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockCartRepo) CountFiltered(_ context.Context, _ query.Filter) (int64, error) {
	return int64(len(m.byID)), nil
}

func (m *mockCartRepo) GetPage(_ context.Context, _ query.Filter, req query.PageRequest) (query.PageResult[cart.Cart], error) {
	req = req.Normalize()
	items := make([]cart.Cart, 0, len(m.byID))
	for _, c := range m.byID {
		items = append(items, *c)
	}
	return query.NewPageResult(items, int64(len(items)), req.Page, req.Size), nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ sale.Event) {}

// --- Helpers ---

// testRepos bundles the in-memory repositories behind a test server.
type testRepos struct {
	sales    *mockSaleRepo
	products *mockProductRepo
	users    *mockUserRepo
	carts    *mockCartRepo
}

func newTestServer(t *testing.T) (*httptest.Server, *testRepos) {
	t.Helper()

	repos := &testRepos{
		sales:    newMockSaleRepo(),
		products: newMockProductRepo(),
		users:    newMockUserRepo(),
		carts:    newMockCartRepo(),
	}
	h := NewHandler(
		sale.NewService(repos.sales, noopPublisher{}),
		product.NewService(repos.products),
		user.NewService(repos.users),
		cart.NewService(repos.carts),
		zap.NewNop(),
	)

	mux := http.NewServeMux()
	h.Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repos
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeResponse[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func storedSale(t *testing.T, repo *mockSaleRepo, quantity int, price string) *sale.Sale {
	t.Helper()

	sl := sale.New("SALE-001", time.Now().UTC(), uuid.New(), "Ada", "ada@example.com", uuid.New(), "Downtown")
	item := sale.NewItem(uuid.New(), "Widget", "", quantity, decimal.RequireFromString(price))
	require.NoError(t, sl.AddItem(item))
	repo.byID[sl.ID] = sl
	return sl
}

// --- Tests ---

func TestCreateSale(t *testing.T) {
	srv, repos := newTestServer(t)

	body := `{
		"saleNumber": "SALE-042",
		"customerId": "` + uuid.NewString() + `",
		"customerName": "Ada",
		"branchId": "` + uuid.NewString() + `",
		"branchName": "Downtown",
		"items": [
			{"productId": "` + uuid.NewString() + `", "productName": "Widget", "quantity": 5, "unitPrice": "100"}
		]
	}`

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeResponse[sale.Sale](t, resp)
	assert.Equal(t, "SALE-042", created.SaleNumber)
	require.Len(t, created.Items, 1)
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("450")),
		"want 450 after 10%% tier, got %s", created.TotalAmount)

	assert.Len(t, repos.sales.byID, 1)
}

func TestCreateSale_Invalid(t *testing.T) {
	srv, repos := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "malformed json",
			body:       `{"saleNumber": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"saleNumber": "S-1", "bogus": true}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing sale number",
			body:       `{"customerId": "` + uuid.NewString() + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "quantity above cap",
			body: `{
				"saleNumber": "S-1",
				"customerId": "` + uuid.NewString() + `",
				"branchId": "` + uuid.NewString() + `",
				"items": [{"productId": "` + uuid.NewString() + `", "quantity": 21, "unitPrice": "10"}]
			}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeResponse[errorResponse](t, resp)
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}

	assert.Empty(t, repos.sales.byID, "no sale should be persisted")
}

func TestGetSale(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "10")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/sales/"+sl.ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeResponse[sale.Sale](t, resp)
	assert.Equal(t, sl.ID, got.ID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sales/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/sales/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListSales(t *testing.T) {
	srv, repos := newTestServer(t)
	storedSale(t, repos.sales, 2, "10")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/sales?customerName=ada&_page=1&_size=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodeResponse[query.PageResult[sale.Sale]](t, resp)
	assert.Equal(t, int64(1), page.TotalItems)
	assert.Equal(t, 5, page.PageSize)

	require.Len(t, repos.sales.lastFilter, 1)
	assert.Equal(t, "customerName", repos.sales.lastFilter[0].Field)
}

func TestListSales_BadParams(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"non-integer page", "?_page=abc"},
		{"non-integer size", "?_size=x"},
		{"bad customer id", "?customerId=nope"},
		{"bad timestamp", "?_minSaleDate=yesterday"},
		{"bad amount", "?_minTotalAmount=ten"},
		{"inverted date range", "?_minSaleDate=2025-02-01T00:00:00Z&_maxSaleDate=2025-01-01T00:00:00Z"},
		{"inverted amount range", "?_minTotalAmount=100&_maxTotalAmount=50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, srv.URL+"/api/sales"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCancelSale(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "10")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales/"+sl.ID.String()+"/cancel", `{"reason": "customer request"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeResponse[sale.Sale](t, resp)
	assert.True(t, got.Cancelled)

	// Cancelling again conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sales/"+sl.ID.String()+"/cancel", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCancelSaleItem(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "10")
	itemID := sl.Items[0].ID

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales/"+sl.ID.String()+"/items/"+itemID.String()+"/cancel", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResponse[sale.Sale](t, resp)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Cancelled)
	assert.True(t, got.TotalAmount.IsZero())

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/sales/"+sl.ID.String()+"/items/"+uuid.NewString()+"/cancel", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateSaleItem(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "100")
	itemID := sl.Items[0].ID
	url := srv.URL + "/api/sales/" + sl.ID.String() + "/items/" + itemID.String()

	resp := doJSON(t, http.MethodPatch, url, `{"quantity": 10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResponse[sale.Sale](t, resp)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("800")),
		"want 800 after 20%% tier, got %s", got.TotalAmount)

	resp = doJSON(t, http.MethodPatch, url, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSale(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "10")

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/sales/"+sl.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repos.sales.byID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/sales/"+sl.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAddAndRemoveSaleItem(t *testing.T) {
	srv, repos := newTestServer(t)
	sl := storedSale(t, repos.sales, 2, "10")

	body := `{"productId": "` + uuid.NewString() + `", "productName": "Gadget", "quantity": 1, "unitPrice": "5"}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/sales/"+sl.ID.String()+"/items", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeResponse[sale.Sale](t, resp)
	require.Len(t, got.Items, 2)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25")))

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/sales/"+sl.ID.String()+"/items/"+got.Items[1].ID.String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeResponse[sale.Sale](t, resp)
	assert.Len(t, got.Items, 1)
}

func TestListProducts_BadRange(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products?_minPrice=10&_maxPrice=1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserAndCart_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/users/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/carts/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductLifecycle(t *testing.T) {
	srv, repos := newTestServer(t)

	body := `{"title": "Espresso Beans", "price": "18.50", "category": "coffee", "stock": 12}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeResponse[product.Product](t, resp)
	assert.Equal(t, "Espresso Beans", created.Title)
	assert.Equal(t, product.StatusActive, created.Status)
	require.Len(t, repos.products.byID, 1)

	// Replace the whole entry, discontinuing it.
	body = `{"title": "Espresso Beans", "price": "21.00", "category": "coffee", "status": "discontinued", "stock": 0}`
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/products/"+created.ID.String(), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeResponse[product.Product](t, resp)
	assert.Equal(t, product.StatusDiscontinued, updated.Status)
	assert.True(t, decimal.RequireFromString("21.00").Equal(updated.Price))
	assert.Equal(t, created.ID, updated.ID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/products/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repos.products.byID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/products/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProduct_Invalid(t *testing.T) {
	srv, repos := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"price": "10.00"}`},
		{"zero price", `{"title": "Widget", "price": "0"}`},
		{"negative stock", `{"title": "Widget", "price": "10.00", "stock": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Empty(t, repos.products.byID)
}

func TestUpdateProduct_NotFoundAndBadStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"title": "Widget", "price": "10.00", "stock": 1}`
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/products/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body = `{"title": "Widget", "price": "10.00", "status": "retired"}`
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/products/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductCategories(t *testing.T) {
	srv, repos := newTestServer(t)

	for _, body := range []string{
		`{"title": "Beans", "price": "18.50", "category": "coffee", "stock": 1}`,
		`{"title": "Mug", "price": "9.00", "category": "kitchen", "stock": 3}`,
	} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/products", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/products/categories", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	categories := decodeResponse[[]string](t, resp)
	assert.ElementsMatch(t, []string{"coffee", "kitchen"}, categories)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/products/category/coffee", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, repos.products.lastFilter, 1)
	assert.Equal(t, "category", repos.products.lastFilter[0].Field)
	assert.Equal(t, "coffee", repos.products.lastFilter[0].Value)
}

func TestUserLifecycle(t *testing.T) {
	srv, repos := newTestServer(t)

	body := `{
		"email": "ana@example.com",
		"username": "ana",
		"password": "secret123",
		"name": {"firstName": "Ana", "lastName": "Silva"},
		"role": "manager"
	}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeResponse[user.User](t, resp)
	assert.Equal(t, "ana", created.Username)
	assert.Equal(t, user.RoleManager, created.Role)
	require.Len(t, repos.users.byID, 1)
	stored := repos.users.byID[created.ID]
	assert.Equal(t, user.HashPassword("secret123"), stored.PasswordHash)

	// Replace without a password keeps the stored hash.
	body = `{
		"email": "ana@example.com",
		"username": "ana.silva",
		"name": {"firstName": "Ana", "lastName": "Silva"},
		"status": "suspended"
	}`
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/users/"+created.ID.String(), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeResponse[user.User](t, resp)
	assert.Equal(t, "ana.silva", updated.Username)
	assert.Equal(t, user.StatusSuspended, updated.Status)
	assert.Equal(t, user.HashPassword("secret123"), repos.users.byID[created.ID].PasswordHash)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/users/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repos.users.byID)
}

func TestCreateUser_Invalid(t *testing.T) {
	srv, repos := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"username": "ana", "password": "x"}`},
		{"malformed email", `{"email": "nope", "username": "ana", "password": "x"}`},
		{"missing username", `{"email": "ana@example.com", "password": "x"}`},
		{"missing password", `{"email": "ana@example.com", "username": "ana"}`},
		{"unknown role", `{"email": "ana@example.com", "username": "ana", "password": "x", "role": "root"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Empty(t, repos.users.byID)
}

func TestCartLifecycle(t *testing.T) {
	srv, repos := newTestServer(t)
	productID := uuid.New()

	body := `{
		"userId": "` + uuid.NewString() + `",
		"products": [
			{"productId": "` + productID.String() + `", "quantity": 2},
			{"productId": "` + productID.String() + `", "quantity": 3}
		]
	}`
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeResponse[cart.Cart](t, resp)
	require.Len(t, created.Products, 1, "duplicate lines are merged")
	assert.Equal(t, 5, created.Products[0].Quantity)

	// Replace the lines wholesale.
	body = `{
		"userId": "` + created.UserID.String() + `",
		"products": [{"productId": "` + uuid.NewString() + `", "quantity": 1}]
	}`
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/carts/"+created.ID.String(), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeResponse[cart.Cart](t, resp)
	require.Len(t, updated.Products, 1)
	assert.Equal(t, 1, updated.Products[0].Quantity)
	assert.NotEqual(t, productID, updated.Products[0].ProductID)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/carts/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, repos.carts.byID)
}

func TestCreateCart_Invalid(t *testing.T) {
	srv, repos := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"products": []}`},
		{"zero quantity", `{"userId": "` + uuid.NewString() + `", "products": [{"productId": "` + uuid.NewString() + `", "quantity": 0}]}`},
		{"missing product id", `{"userId": "` + uuid.NewString() + `", "products": [{"quantity": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/carts", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.Empty(t, repos.carts.byID)
}
