package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/db"
	"github.com/sirupsen/logrus"
)

// OrderRepository implements the order repository interface over Postgres.
type OrderRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(database *db.Database, logger *logrus.Logger) ports.OrderRepository {
	return &OrderRepository{db: database, logger: logger}
}

// Create persists an order with its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, status, subtotal, vat_amount, shipping_cost, total,
		                    shipping_name, shipping_street, shipping_city, postal_code, country_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.UserID, o.Status, o.Subtotal, o.VATAmount, o.ShippingCost, o.Total,
		o.ShippingName, o.ShippingStreet, o.ShippingCity, o.PostalCode, o.CountryCode)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range o.Items {
		optionsJSON, err := json.Marshal(item.SelectedOptions)
		if err != nil {
			return fmt.Errorf("failed to marshal selected options: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, sku, name, quantity, unit_price, subtotal, selected_options)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, o.ID, item.ProductID, item.SKU, item.Name, item.Quantity,
			item.UnitPrice, item.Subtotal, optionsJSON); err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return tx.Commit()
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.db.DB.QueryRowContext(ctx, `
		SELECT id, user_id, status, subtotal, vat_amount, shipping_cost, total,
		       shipping_name, shipping_street, shipping_city, postal_code, country_code,
		       created_at, updated_at
		FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.VATAmount, &o.ShippingCost, &o.Total,
		&o.ShippingName, &o.ShippingStreet, &o.ShippingCity, &o.PostalCode, &o.CountryCode,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order not found")
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *order.Order) error {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, order_id, product_id, sku, name, quantity, unit_price, subtotal, selected_options
		FROM order_items WHERE order_id = $1 ORDER BY sku`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		var optionsJSON []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.SKU, &item.Name,
			&item.Quantity, &item.UnitPrice, &item.Subtotal, &optionsJSON); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if len(optionsJSON) > 0 {
			var opts []cart.SelectedOption
			if err := json.Unmarshal(optionsJSON, &opts); err == nil {
				item.SelectedOptions = opts
			}
		}
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

// ListByUser returns the user's orders, newest first, without items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT id, user_id, status, subtotal, vat_amount, shipping_cost, total,
		       shipping_name, shipping_street, shipping_city, postal_code, country_code,
		       created_at, updated_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		var o order.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.Subtotal, &o.VATAmount, &o.ShippingCost, &o.Total,
			&o.ShippingName, &o.ShippingStreet, &o.ShippingCity, &o.PostalCode, &o.CountryCode,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// UpdateStatus sets the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}
