package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Expected business failures surfaced by the cart engine. Handlers map these to
// client-visible responses with errors.Is; anything else is a server error.
var (
	ErrProductNotFound = errors.New("product not found or not purchasable")
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// SelectedOption records one customization choice on a cart line. The cart never
// interprets these; they are stored as-is and forwarded to order creation.
type SelectedOption struct {
	OptionGroupName       string `json:"option_group_name"`
	SelectedComponentID   string `json:"selected_component_id"`
	SelectedComponentName string `json:"selected_component_name"`
}

// Line is a single priced cart position. EffectiveUnitPrice is the catalog unit
// price plus the stored price modifier for the product.
type Line struct {
	ProductID          string           `json:"product_id"`
	SKU                string           `json:"sku"`
	Name               string           `json:"name"`
	Quantity           int64            `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	PriceModifier      decimal.Decimal  `json:"price_modifier"`
	EffectiveUnitPrice decimal.Decimal  `json:"effective_unit_price"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	VATRate            decimal.Decimal  `json:"vat_rate"`
	VATAmount          decimal.Decimal  `json:"vat_amount"`
	SelectedOptions    []SelectedOption `json:"selected_options,omitempty"`
}

// View is the fully priced cart as returned to callers.
type View struct {
	Key        string          `json:"-"`
	Lines      []Line          `json:"lines"`
	TotalItems int64           `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	Total      decimal.Decimal `json:"total"`
}

// Empty reports whether the cart has no lines.
func (v *View) Empty() bool {
	return len(v.Lines) == 0
}
