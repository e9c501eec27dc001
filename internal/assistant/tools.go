package assistant

import (
	"context"

	"github.com/salesdesk/salesdesk/internal/log"
	"github.com/salesdesk/salesdesk/internal/store"
)

// Tool names advertised to the model.
const (
	SearchProductsToolName  = "searchProductsByName"
	ProductStockToolName    = "getProductStock"
	OrderByNumberToolName   = "getOrderByNumber"
	CustomerByEmailToolName = "getCustomerByEmail"
	CompanyInfoToolName     = "getCompanySettings"
)

// DataReader is the read surface the tool catalogue needs from the
// store. Every operation is a single logical read; no tool mutates
// state, so the model may call them speculatively or repeatedly.
type DataReader interface {
	SearchProductsByName(ctx context.Context, name string, limit int) ([]store.ProductHit, error)
	GetProductStock(ctx context.Context, productID int64) (store.StockInfo, bool, error)
	GetOrderByNumber(ctx context.Context, orderNumber int64) (*store.OrderDetail, bool, error)
	GetPersonByEmail(ctx context.Context, email string) (*store.Person, bool, error)
	GetCompanySettings(ctx context.Context) (*store.CompanySettings, bool, error)
}

type searchProductsInput struct {
	Name  string `json:"name" jsonschema_description:"Texto a buscar en el nombre del producto"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Máximo de resultados (1-50, por defecto 10)"`
}

type productStockInput struct {
	ProductID int64 `json:"productId" jsonschema_description:"ID del producto"`
}

type orderByNumberInput struct {
	OrderNumber int64 `json:"orderNumber" jsonschema_description:"Número del pedido"`
}

type customerByEmailInput struct {
	Email string `json:"email" jsonschema_description:"Email exacto del cliente"`
}

type companyInfoInput struct{}

// NewCatalogue builds the fixed tool catalogue over the given data
// reader. Not-found conditions are reported as {found: false} rather
// than errors so the model can compose a helpful negative answer.
func NewCatalogue(data DataReader, logger log.Logger) (*Registry, error) {
	registry := NewRegistry(logger)

	searchProducts, err := NewTool(SearchProductsToolName,
		"Buscar productos por nombre (búsqueda parcial, sin distinción de mayúsculas).",
		func(ctx context.Context, in searchProductsInput) (any, error) {
			hits, err := data.SearchProductsByName(ctx, in.Name, in.Limit)
			if err != nil {
				return nil, err
			}
			return hits, nil
		})
	if err != nil {
		return nil, err
	}

	productStock, err := NewTool(ProductStockToolName,
		"Obtener stock y nombre de un producto por su ID.",
		func(ctx context.Context, in productStockInput) (any, error) {
			info, found, err := data.GetProductStock(ctx, in.ProductID)
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{
				"found": true,
				"id":    info.ID,
				"name":  info.Name,
				"stock": info.Stock,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	orderByNumber, err := NewTool(OrderByNumberToolName,
		"Trae un pedido por su número, con ítems y totales.",
		func(ctx context.Context, in orderByNumberInput) (any, error) {
			detail, found, err := data.GetOrderByNumber(ctx, in.OrderNumber)
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "order": detail}, nil
		})
	if err != nil {
		return nil, err
	}

	customerByEmail, err := NewTool(CustomerByEmailToolName,
		"Obtener persona (cliente) por email exacto.",
		func(ctx context.Context, in customerByEmailInput) (any, error) {
			person, found, err := data.GetPersonByEmail(ctx, in.Email)
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "person": person}, nil
		})
	if err != nil {
		return nil, err
	}

	companyInfo, err := NewTool(CompanyInfoToolName,
		"Obtener la configuración de la empresa (perfil, personalidad, mensajería de ventas).",
		func(ctx context.Context, _ companyInfoInput) (any, error) {
			settings, found, err := data.GetCompanySettings(ctx)
			if err != nil {
				return nil, err
			}
			if !found {
				return map[string]any{"found": false}, nil
			}
			return map[string]any{"found": true, "settings": settings}, nil
		})
	if err != nil {
		return nil, err
	}

	for _, t := range []*Tool{searchProducts, productStock, orderByNumber, customerByEmail, companyInfo} {
		if err := registry.Add(t); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
