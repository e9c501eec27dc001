package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/salesdesk/salesdesk/internal/log"
	"github.com/salesdesk/salesdesk/internal/store"
)

// DataStore is the persistence surface the handlers need. Implemented
// by *store.Store.
type DataStore interface {
	ListProducts(ctx context.Context, limit, offset int) ([]store.Product, error)
	GetProduct(ctx context.Context, id int64) (*store.Product, error)
	CreateProduct(ctx context.Context, params store.CreateProductParams) (*store.Product, error)
	UpdateProduct(ctx context.Context, id int64, params store.CreateProductParams) (*store.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]store.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*store.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListPersons(ctx context.Context, limit, offset int) ([]store.Person, error)
	CreatePerson(ctx context.Context, params store.CreatePersonParams) (*store.Person, error)

	ListEmployees(ctx context.Context, limit, offset int) ([]store.Employee, error)
	CreateEmployee(ctx context.Context, params store.CreateEmployeeParams) (*store.Employee, error)

	ListOrders(ctx context.Context, limit, offset int) ([]store.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber int64) (*store.OrderDetail, bool, error)
	CreateOrder(ctx context.Context, params store.CreateOrderParams) (*store.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, orderNumber int64, status string) error

	GetCompanySettings(ctx context.Context) (*store.CompanySettings, bool, error)
	UpsertCompanySettings(ctx context.Context, params store.CompanySettingsParams) (*store.CompanySettings, error)
	DeleteCompanySettings(ctx context.Context) error
}

// Config carries the server dependencies.
type Config struct {
	Logger    log.Logger
	Responder Responder
	Store     DataStore
	Pinger    Pinger

	// TrustProxy enables X-Real-IP / X-Forwarded-For for client IPs.
	TrustProxy bool
	// RateLimit is requests per second per IP; RateBurst the bucket size.
	// Zero values fall back to defaults.
	RateLimit float64
	RateBurst int

	// CredentialError, when non-empty, makes POST /chat fail fast with
	// this message instead of invoking the model. Set at startup when
	// the configured provider is missing its API key.
	CredentialError string
}

const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// Server is the HTTP API.
type Server struct {
	logger        log.Logger
	responder     Responder
	store         DataStore
	pinger        Pinger
	credentialErr string
	handler       http.Handler
}

// NewServer wires the routes and middleware.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Responder == nil {
		return nil, errors.New("api: responder is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}

	s := &Server{
		logger:        cfg.Logger,
		responder:     cfg.Responder,
		store:         cfg.Store,
		pinger:        cfg.Pinger,
		credentialErr: cfg.CredentialError,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)

	mux.HandleFunc("GET /api/products", s.handleListProducts)
	mux.HandleFunc("POST /api/products", s.handleCreateProduct)
	mux.HandleFunc("GET /api/products/{id}", s.handleGetProduct)
	mux.HandleFunc("PUT /api/products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", s.handleDeleteProduct)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/customers", s.handleListCustomers)
	mux.HandleFunc("POST /api/customers", s.handleCreateCustomer)

	mux.HandleFunc("GET /api/employees", s.handleListEmployees)
	mux.HandleFunc("POST /api/employees", s.handleCreateEmployee)

	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/orders/{number}", s.handleGetOrder)
	mux.HandleFunc("PATCH /api/orders/{number}/status", s.handleUpdateOrderStatus)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("DELETE /api/settings", s.handleDeleteSettings)

	rl := newRateLimiter(cfg.RateLimit, cfg.RateBurst)
	chain := []func(http.Handler) http.Handler{
		recoveryMiddleware(cfg.Logger),
		requestIDMiddleware(),
		loggingMiddleware(cfg.Logger),
		rateLimitMiddleware(rl, cfg.TrustProxy, cfg.Logger),
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	// Probes bypass the middleware stack so load balancers are never
	// rate limited.
	root := http.NewServeMux()
	root.HandleFunc("GET /health", s.handleHealth)
	root.HandleFunc("GET /ready", s.handleReady)
	root.Handle("/", handler)

	s.handler = root
	return s, nil
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
