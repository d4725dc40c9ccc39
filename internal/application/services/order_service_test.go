package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	impl "github.com/pedalcraft/commerce-backend/internal/application/services"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/order"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/user"
	"github.com/shopspring/decimal"
)

type orderRepoMock struct {
	createFn       func(ctx context.Context, o *order.Order) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	listFn         func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status order.Status) error
}

func (m *orderRepoMock) Create(ctx context.Context, o *order.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, o)
	}
	return nil
}
func (m *orderRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}
func (m *orderRepoMock) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*order.Order, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit, offset)
	}
	return nil, nil
}
func (m *orderRepoMock) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

type userRepoMock struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*user.User, error)
}

func (m *userRepoMock) Create(ctx context.Context, u *user.User) error { return nil }
func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &user.User{ID: id, Email: "buyer@example.com", FirstName: "Buyer"}, nil
}
func (m *userRepoMock) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, errors.New("not found")
}

type shippingMock struct {
	rateFn func(ctx context.Context, countryCode, postalCode string) (decimal.Decimal, error)
}

func (m *shippingMock) Rate(ctx context.Context, countryCode, postalCode string) (decimal.Decimal, error) {
	if m.rateFn != nil {
		return m.rateFn(ctx, countryCode, postalCode)
	}
	return decimal.NewFromInt(5), nil
}

type emailMock struct {
	sent int
}

func (m *emailMock) SendOrderConfirmation(ctx context.Context, toEmail, toName string, o *order.Order) error {
	m.sent++
	return nil
}

func checkoutRequest() *order.CreateOrderRequest {
	return &order.CreateOrderRequest{
		ShippingName:   "Buyer",
		ShippingStreet: "Street 1",
		ShippingCity:   "Berlin",
		PostalCode:     "10435",
		CountryCode:    "DE",
	}
}

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	store := newMemStore()
	cartSvc := newCartService(store)
	ctx := context.Background()
	if _, err := cartSvc.AddItem(ctx, "cart:user:u1", "p1", 2, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var created *order.Order
	repo := &orderRepoMock{createFn: func(ctx context.Context, o *order.Order) error {
		created = o
		return nil
	}}
	email := &emailMock{}
	svc := impl.NewOrderService(repo, cartSvc, &shippingMock{}, &userRepoMock{}, email, nil)

	userID := uuid.New()
	o, err := svc.Checkout(ctx, userID, "cart:user:u1", "en", checkoutRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created == nil {
		t.Fatalf("expected order persisted")
	}
	if o.Status != order.StatusPending {
		t.Fatalf("expected pending status, got %s", o.Status)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	// 2 x 100.00 + 20% VAT + 5 shipping
	if !o.Total.Equal(decimal.NewFromInt(245)) {
		t.Fatalf("expected total 245, got %s", o.Total)
	}
	if email.sent != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", email.sent)
	}

	view, err := cartSvc.GetCart(ctx, "cart:user:u1", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.Empty() {
		t.Fatalf("expected cart cleared after checkout")
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	cartSvc := newCartService(newMemStore())
	svc := impl.NewOrderService(&orderRepoMock{}, cartSvc, &shippingMock{}, &userRepoMock{}, &emailMock{}, nil)

	_, err := svc.Checkout(context.Background(), uuid.New(), "cart:user:u1", "en", checkoutRequest())
	if !errors.Is(err, impl.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_ShippingFailureAborts(t *testing.T) {
	store := newMemStore()
	cartSvc := newCartService(store)
	ctx := context.Background()
	if _, err := cartSvc.AddItem(ctx, "cart:user:u1", "p1", 1, nil, "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ship := &shippingMock{rateFn: func(ctx context.Context, countryCode, postalCode string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("no zone")
	}}
	svc := impl.NewOrderService(&orderRepoMock{}, cartSvc, ship, &userRepoMock{}, &emailMock{}, nil)

	if _, err := svc.Checkout(ctx, uuid.New(), "cart:user:u1", "en", checkoutRequest()); err == nil {
		t.Fatalf("expected checkout to fail when shipping cannot be rated")
	}
	// The cart must survive a failed checkout.
	view, _ := cartSvc.GetCart(ctx, "cart:user:u1", "en")
	if view.Empty() {
		t.Fatalf("expected cart intact after failed checkout")
	}
}

func TestAdvanceStatus(t *testing.T) {
	id := uuid.New()
	current := order.StatusPending
	repo := &orderRepoMock{
		getByIDFn: func(ctx context.Context, gotID uuid.UUID) (*order.Order, error) {
			return &order.Order{ID: id, Status: current}, nil
		},
		updateStatusFn: func(ctx context.Context, gotID uuid.UUID, status order.Status) error {
			current = status
			return nil
		},
	}
	svc := impl.NewOrderService(repo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	o, err := svc.AdvanceStatus(ctx, id, order.StatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != order.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", o.Status)
	}

	if _, err := svc.AdvanceStatus(ctx, id, order.StatusDelivered); !errors.Is(err, impl.ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
}
