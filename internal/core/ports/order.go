package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
)

// OrderRepository persists finalized carts as orders.
type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error
}

// OrderService handles checkout and the fixed linear status progression.
type OrderService interface {
	// Checkout converts the user's cart into an order, clears the cart and
	// sends a confirmation email (best effort).
	Checkout(ctx context.Context, userID uuid.UUID, cartKey, locale string, req *order.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, next order.Status) (*order.Order, error)
}
