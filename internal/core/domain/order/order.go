package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/cart"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions is the fixed linear status table. Cancellation is only possible
// before the order ships.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether the status change is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Status         Status          `json:"status" db:"status"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	VATAmount      decimal.Decimal `json:"vat_amount" db:"vat_amount"`
	ShippingCost   decimal.Decimal `json:"shipping_cost" db:"shipping_cost"`
	Total          decimal.Decimal `json:"total" db:"total"`
	ShippingName   string          `json:"shipping_name" db:"shipping_name"`
	ShippingStreet string          `json:"shipping_street" db:"shipping_street"`
	ShippingCity   string          `json:"shipping_city" db:"shipping_city"`
	PostalCode     string          `json:"postal_code" db:"postal_code"`
	CountryCode    string          `json:"country_code" db:"country_code"`
	Items          []Item          `json:"items"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Item is one frozen order line. SelectedOptions is the configuration metadata
// copied verbatim from the cart line; it is never interpreted here.
type Item struct {
	ID              uuid.UUID             `json:"id" db:"id"`
	OrderID         uuid.UUID             `json:"order_id" db:"order_id"`
	ProductID       string                `json:"product_id" db:"product_id"`
	SKU             string                `json:"sku" db:"sku"`
	Name            string                `json:"name" db:"name"`
	Quantity        int64                 `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal       `json:"unit_price" db:"unit_price"`
	Subtotal        decimal.Decimal       `json:"subtotal" db:"subtotal"`
	SelectedOptions []cart.SelectedOption `json:"selected_options,omitempty"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ShippingName   string `json:"shipping_name" validate:"required"`
	ShippingStreet string `json:"shipping_street" validate:"required"`
	ShippingCity   string `json:"shipping_city" validate:"required"`
	PostalCode     string `json:"postal_code" validate:"required"`
	CountryCode    string `json:"country_code" validate:"required"`
}
