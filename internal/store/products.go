package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, COALESCE(description, ''), price::float8, stock,
	COALESCE(image_url, ''), category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.ImageURL, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchProductsByName finds products whose name contains the given
// text, case-insensitively. limit is clamped to 1..50 with a default
// of 10, matching the schema advertised to the model.
func (s *Store) SearchProductsByName(ctx context.Context, name string, limit int) ([]ProductHit, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, name, price::float8, stock, category_id
		 FROM products
		 WHERE name ILIKE '%' || $1 || '%'
		 ORDER BY id
		 LIMIT $2`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer rows.Close()

	hits := make([]ProductHit, 0, limit)
	for rows.Next() {
		var h ProductHit
		if err := rows.Scan(&h.ID, &h.Name, &h.Price, &h.Stock, &h.CategoryID); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return hits, nil
}

// GetProductStock returns stock and name for one product. The found
// flag is false when the product does not exist.
func (s *Store) GetProductStock(ctx context.Context, productID int64) (StockInfo, bool, error) {
	var info StockInfo
	err := s.db.QueryRow(ctx,
		`SELECT id, name, stock FROM products WHERE id = $1`, productID).
		Scan(&info.ID, &info.Name, &info.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return StockInfo{}, false, nil
	}
	if err != nil {
		return StockInfo{}, false, fmt.Errorf("getting product stock: %w", err)
	}
	return info, true, nil
}

// ListProducts returns products ordered by id.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// GetProduct returns one product or ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return p, nil
}

// CreateProductParams holds the writable product fields.
type CreateProductParams struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"image_url"`
	CategoryID  *int64  `json:"category_id"`
}

// CreateProduct inserts a product and returns the stored row.
func (s *Store) CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx,
		`INSERT INTO products (name, description, price, stock, image_url, category_id)
		 VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6)
		 RETURNING `+productColumns,
		params.Name, params.Description, params.Price, params.Stock,
		params.ImageURL, params.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	s.logger.Debug("product created", "id", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProduct replaces the writable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, id int64, params CreateProductParams) (*Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, description = NULLIF($3, ''), price = $4, stock = $5,
		     image_url = NULLIF($6, ''), category_id = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, params.Name, params.Description, params.Price, params.Stock,
		params.ImageURL, params.CategoryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	return p, nil
}

// DeleteProduct removes a product. Returns ErrNotFound when no row
// was deleted.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return nil
}
