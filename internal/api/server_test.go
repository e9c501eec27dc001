package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/salesdesk/internal/assistant"
	"github.com/salesdesk/salesdesk/internal/store"
)

// fakeResponder streams the configured chunks and returns the joined
// text, or fails with err.
type fakeResponder struct {
	chunks []string
	err    error
	last   assistant.Request
}

func (f *fakeResponder) Respond(ctx context.Context, req assistant.Request, stream assistant.StreamFunc) (*assistant.Result, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.chunks {
		if stream != nil {
			if err := stream(ctx, c); err != nil {
				return nil, err
			}
		}
	}
	return &assistant.Result{Text: strings.Join(f.chunks, ""), Steps: 1}, nil
}

// fakeStore serves canned rows. When err is set every method fails
// with it.
type fakeStore struct {
	err      error
	products map[int64]*store.Product
	orders   map[int64]*store.OrderDetail
	settings *store.CompanySettings
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[int64]*store.Product{
			1: {ID: 1, Name: "Smartphone X", Price: 499.99, Stock: 20},
		},
		orders: map[int64]*store.OrderDetail{
			1001: {
				Order:    store.Order{ID: 1, OrderNumber: 1001, PersonID: 1, TotalAmount: 1129.98, Status: "pending"},
				Subtotal: 999.98, Tax: 130.00, Total: 1129.98,
			},
		},
		nextID: 1,
	}
}

func (f *fakeStore) ListProducts(context.Context, int, int) ([]store.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (*store.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, params store.CreateProductParams) (*store.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	p := &store.Product{ID: f.nextID, Name: params.Name, Price: params.Price, Stock: params.Stock}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, id int64, params store.CreateProductParams) (*store.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	p.Name = params.Name
	p.Price = params.Price
	p.Stock = params.Stock
	return p, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) ListCategories(context.Context) ([]store.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []store.Category{{ID: 1, Name: "Electronics"}}, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, name, description string) (*store.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.Category{ID: 2, Name: name, Description: description}, nil
}

func (f *fakeStore) DeleteCategory(context.Context, int64) error {
	return f.err
}

func (f *fakeStore) ListPersons(context.Context, int, int) ([]store.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []store.Person{{ID: 1, FirstName: "Ana", LastName: "García", Email: "ana@example.com"}}, nil
}

func (f *fakeStore) CreatePerson(_ context.Context, params store.CreatePersonParams) (*store.Person, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.Person{ID: 2, FirstName: params.FirstName, LastName: params.LastName, Email: params.Email}, nil
}

func (f *fakeStore) ListEmployees(context.Context, int, int) ([]store.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []store.Employee{{ID: 1, FirstName: "Luis", LastName: "Mora", Email: "luis@example.com", Position: "ventas"}}, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, params store.CreateEmployeeParams) (*store.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &store.Employee{ID: 2, FirstName: params.FirstName, LastName: params.LastName, Email: params.Email, Position: params.Position}, nil
}

func (f *fakeStore) ListOrders(context.Context, int, int) ([]store.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o.Order)
	}
	return out, nil
}

func (f *fakeStore) GetOrderByNumber(_ context.Context, orderNumber int64) (*store.OrderDetail, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	o, ok := f.orders[orderNumber]
	return o, ok, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, params store.CreateOrderParams) (*store.OrderDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, item := range params.Items {
		p, ok := f.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrNotFound)
		}
		if p.Stock < item.Quantity {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, store.ErrInsufficientStock)
		}
	}
	detail := &store.OrderDetail{
		Order: store.Order{ID: 2, OrderNumber: 1002, PersonID: params.PersonID, Status: "pending"},
	}
	f.orders[1002] = detail
	return detail, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderNumber int64, status string) error {
	if f.err != nil {
		return f.err
	}
	o, ok := f.orders[orderNumber]
	if !ok {
		return fmt.Errorf("order %d: %w", orderNumber, store.ErrNotFound)
	}
	o.Status = status
	return nil
}

func (f *fakeStore) GetCompanySettings(context.Context) (*store.CompanySettings, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	return f.settings, f.settings != nil, nil
}

func (f *fakeStore) UpsertCompanySettings(_ context.Context, params store.CompanySettingsParams) (*store.CompanySettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.settings = &store.CompanySettings{ID: 1, Name: params.Name, Description: params.Description}
	return f.settings, nil
}

func (f *fakeStore) DeleteCompanySettings(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.settings = nil
	return nil
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Responder == nil {
		cfg.Responder = &fakeResponder{chunks: []string{"hola"}}
	}
	if cfg.Store == nil {
		cfg.Store = newFakeStore()
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r.RemoteAddr = "192.0.2.10:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestChatStreamsPlainText(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{chunks: []string{"Hay ", "20 unidades."}}
	srv := newTestServer(t, Config{Responder: responder})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"¿cuánto stock queda?"}],"system":"sé amable","model":"gpt-4o"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Hay 20 unidades.", w.Body.String())
	assert.Equal(t, "sé amable", responder.last.System)
	assert.Equal(t, "gpt-4o", responder.last.Model)
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})

	for name, body := range map[string]string{
		"no messages":  `{"messages":[]}`,
		"empty object": `{}`,
		"bad json":     `{`,
	} {
		w := doJSON(t, srv.Handler(), http.MethodPost, "/chat", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain", name)
	}
}

func TestChatMissingCredential(t *testing.T) {
	t.Parallel()

	responder := &fakeResponder{chunks: []string{"nunca"}}
	srv := newTestServer(t, Config{
		Responder:       responder,
		CredentialError: "Falta OPENAI_API_KEY en variables de entorno",
	})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hola"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Falta OPENAI_API_KEY en variables de entorno\n", w.Body.String())
	assert.Empty(t, responder.last.Messages, "the model must not be invoked")
}

func TestChatModelErrorBeforeStreaming(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{
		Responder: &fakeResponder{err: fmt.Errorf("%w: boom", assistant.ErrModelInvocation)},
	})

	w := doJSON(t, srv.Handler(), http.MethodPost, "/chat",
		`{"messages":[{"role":"user","content":"hola"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestProductCRUD(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	var products []store.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 1)

	w = doJSON(t, h, http.MethodPost, "/api/products",
		`{"name":"Laptop Pro","price":1299.99,"stock":5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Laptop Pro", created.Name)

	w = doJSON(t, h, http.MethodPost, "/api/products", `{"name":"","price":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/products/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/products/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEmployeeEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/employees", "")
	require.Equal(t, http.StatusOK, w.Code)
	var employees []store.Employee
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &employees))
	require.Len(t, employees, 1)
	assert.Equal(t, "luis@example.com", employees[0].Email)

	w = doJSON(t, h, http.MethodPost, "/api/employees",
		`{"first_name":"Carla","last_name":"Rojas","email":"carla@example.com","position":"ventas"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Employee
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Carla", created.FirstName)

	w = doJSON(t, h, http.MethodPost, "/api/employees", `{"first_name":"","email":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/orders/1001", "")
	require.Equal(t, http.StatusOK, w.Code)
	var detail store.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, int64(1001), detail.OrderNumber)
	assert.InDelta(t, 999.98, detail.Subtotal, 0.001)

	w = doJSON(t, h, http.MethodGet, "/api/orders/4242", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/orders",
		`{"person_id":1,"items":[{"product_id":1,"quantity":500}]}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_stock", body.Error.Code)

	w = doJSON(t, h, http.MethodPost, "/api/orders",
		`{"person_id":1,"items":[{"product_id":1,"quantity":2}]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodPatch, "/api/orders/1001/status", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, h, http.MethodPatch, "/api/orders/1001/status", `{"status":"teleported"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/settings", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, h, http.MethodPut, "/api/settings",
		`{"name":"TechHub","description":"Venta de electrónica"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/settings", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodDelete, "/api/settings", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStoreFailureReturns500(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.err = errors.New("connection refused")
	srv := newTestServer(t, Config{Store: fs})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Error.Code)
	assert.NotContains(t, body.Error.Message, "connection refused")
}

func TestHealthProbes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestReadinessFailsWhenDatabaseIsDown(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Pinger: failingPinger{}})

	w := doJSON(t, srv.Handler(), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimitKicksIn(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{RateLimit: 0.001, RateBurst: 1})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Probes are mounted outside the limited stack.
	w = doJSON(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/api/products", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.RemoteAddr = "192.0.2.11:1234"
	r.Header.Set("X-Request-ID", "7b8e1cbe-93ad-4b4f-9f06-31a3aa0fbb3f")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "7b8e1cbe-93ad-4b4f-9f06-31a3aa0fbb3f", w.Header().Get("X-Request-ID"))
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	_, err := NewServer(Config{Store: newFakeStore()})
	assert.Error(t, err)

	_, err = NewServer(Config{Responder: &fakeResponder{}})
	assert.Error(t, err)
}
