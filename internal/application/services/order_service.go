package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/sirupsen/logrus"
)

var ErrEmptyCart = errors.New("cart is empty")
var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// OrderService turns priced carts into persisted orders.
type OrderService struct {
	orders   ports.OrderRepository
	carts    ports.CartService
	shipping ports.ShippingCalculator
	users    ports.UserRepository
	email    ports.EmailService
	logger   *logrus.Logger
}

func NewOrderService(orders ports.OrderRepository, carts ports.CartService, shipping ports.ShippingCalculator, users ports.UserRepository, email ports.EmailService, logger *logrus.Logger) ports.OrderService {
	return &OrderService{orders: orders, carts: carts, shipping: shipping, users: users, email: email, logger: logger}
}

// Checkout snapshots the cart into an order, persists it, clears the cart and
// sends a confirmation email. The email is best effort; a send failure never
// fails the order.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID, cartKey, locale string, req *order.CreateOrderRequest) (*order.Order, error) {
	view, err := s.carts.GetCart(ctx, cartKey, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart for checkout: %w", err)
	}
	if view.Empty() {
		return nil, ErrEmptyCart
	}

	shippingCost, err := s.shipping.Rate(ctx, req.CountryCode, req.PostalCode)
	if err != nil {
		return nil, fmt.Errorf("failed to compute shipping: %w", err)
	}

	o := &order.Order{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         order.StatusPending,
		Subtotal:       view.Subtotal,
		VATAmount:      view.VATAmount,
		ShippingCost:   shippingCost,
		Total:          view.Total.Add(shippingCost),
		ShippingName:   req.ShippingName,
		ShippingStreet: req.ShippingStreet,
		ShippingCity:   req.ShippingCity,
		PostalCode:     req.PostalCode,
		CountryCode:    req.CountryCode,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	for _, line := range view.Lines {
		o.Items = append(o.Items, order.Item{
			ID:              uuid.New(),
			OrderID:         o.ID,
			ProductID:       line.ProductID,
			SKU:             line.SKU,
			Name:            line.Name,
			Quantity:        line.Quantity,
			UnitPrice:       line.EffectiveUnitPrice,
			Subtotal:        line.Subtotal,
			SelectedOptions: line.SelectedOptions,
		})
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.carts.ClearCart(ctx, cartKey); err != nil {
		// The order exists; an uncleared cart is an annoyance, not a failure.
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"order_id": o.ID, "cart_key": cartKey}).WithError(err).Warn("failed to clear cart after checkout")
		}
	}

	s.sendConfirmation(ctx, userID, o)

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"order_id": o.ID, "user_id": userID, "total": o.Total}).Info("order created")
	}
	return o, nil
}

func (s *OrderService) sendConfirmation(ctx context.Context, userID uuid.UUID, o *order.Order) {
	if s.email == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"order_id": o.ID}).WithError(err).Warn("failed to resolve user for confirmation email")
		}
		return
	}
	if err := s.email.SendOrderConfirmation(ctx, u.Email, u.FirstName, o); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"order_id": o.ID}).WithError(err).Warn("failed to send order confirmation")
		}
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// AdvanceStatus moves an order along the fixed linear status table.
func (s *OrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, next order.Status) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, next)
	}
	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return o, nil
}
