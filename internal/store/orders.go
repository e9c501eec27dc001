package store

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
)

// roundCents rounds a money amount to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetOrderByNumber fetches an order by its human-facing number, with
// its line items and computed subtotal, tax, and total. The found
// flag is false when the order does not exist.
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber int64) (*OrderDetail, bool, error) {
	var d OrderDetail
	err := s.db.QueryRow(ctx,
		`SELECT id, order_number, person_id, employee_id, total_amount::float8, status,
		        created_at, updated_at
		 FROM orders WHERE order_number = $1`, orderNumber).
		Scan(&d.ID, &d.OrderNumber, &d.PersonID, &d.EmployeeID, &d.TotalAmount,
			&d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting order %d: %w", orderNumber, err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT oi.id, oi.product_id, oi.quantity, oi.unit_price::float8,
		        p.id, p.name, p.price::float8
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`, d.ID)
	if err != nil {
		return nil, false, fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      OrderLine
			prodID    *int64
			prodName  *string
			prodPrice *float64
		)
		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.UnitPrice,
			&prodID, &prodName, &prodPrice); err != nil {
			return nil, false, fmt.Errorf("scanning order item: %w", err)
		}
		if prodID != nil {
			line.Product = &ProductRef{ID: *prodID, Name: *prodName, Price: *prodPrice}
		}
		d.Items = append(d.Items, line)
		d.Subtotal += line.UnitPrice * float64(line.Quantity)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("getting order items: %w", err)
	}

	d.Subtotal = roundCents(d.Subtotal)
	d.Tax = roundCents(d.Subtotal * TaxRate)
	d.Total = roundCents(d.Subtotal + d.Tax)
	return &d, true, nil
}

// ListOrders returns orders newest first.
func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]Order, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, order_number, person_id, employee_id, total_amount::float8, status,
		        created_at, updated_at
		 FROM orders ORDER BY order_number DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.PersonID, &o.EmployeeID,
			&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// CreateOrderItem is one requested line of a new order.
type CreateOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderParams holds the input for CreateOrder.
type CreateOrderParams struct {
	PersonID   int64             `json:"person_id"`
	EmployeeID *int64            `json:"employee_id"`
	Items      []CreateOrderItem `json:"items"`
}

// CreateOrder creates an order transactionally: it assigns the next
// order number, prices each line at the product's current price,
// decrements stock, and stores the taxed total. The whole order fails
// if any product is missing or short on stock.
func (s *Store) CreateOrder(ctx context.Context, params CreateOrderParams) (*OrderDetail, error) {
	if len(params.Items) == 0 {
		return nil, fmt.Errorf("creating order: no items")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var orderNumber int64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_number), 1000) + 1 FROM orders`).
		Scan(&orderNumber); err != nil {
		return nil, fmt.Errorf("assigning order number: %w", err)
	}

	var subtotal float64
	type pricedItem struct {
		CreateOrderItem
		unitPrice float64
	}
	priced := make([]pricedItem, 0, len(params.Items))
	for _, item := range params.Items {
		var price float64
		var stock int
		err := tx.QueryRow(ctx,
			`SELECT price::float8, stock FROM products WHERE id = $1 FOR UPDATE`,
			item.ProductID).Scan(&price, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("pricing product %d: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
		}
		priced = append(priced, pricedItem{CreateOrderItem: item, unitPrice: price})
		subtotal += price * float64(item.Quantity)
	}

	subtotal = roundCents(subtotal)
	tax := roundCents(subtotal * TaxRate)
	total := roundCents(subtotal + tax)

	var orderID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO orders (order_number, person_id, employee_id, total_amount, status)
		 VALUES ($1, $2, $3, $4, 'pending')
		 RETURNING id`,
		orderNumber, params.PersonID, params.EmployeeID, total).
		Scan(&orderID); err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	for _, item := range priced {
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)`,
			orderID, item.ProductID, item.Quantity, item.unitPrice); err != nil {
			return nil, fmt.Errorf("inserting order item: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`,
			item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("adjusting stock: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	s.logger.Info("order created", "order_number", orderNumber, "total", total)

	detail, found, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("order %d: %w", orderNumber, ErrNotFound)
	}
	return detail, nil
}

// UpdateOrderStatus sets an order's status by its order number.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNumber int64, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE order_number = $1`,
		orderNumber, status)
	if err != nil {
		return fmt.Errorf("updating order %d status: %w", orderNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", orderNumber, ErrNotFound)
	}
	return nil
}
