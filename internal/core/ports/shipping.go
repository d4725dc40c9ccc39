package ports

import (
	"context"

	"github.com/pedalcraft/commerce-backend/internal/core/domain/shipping"
	"github.com/shopspring/decimal"
)

type ShippingRepository interface {
	ListZones(ctx context.Context, countryCode string) ([]*shipping.Zone, error)
}

// ShippingCalculator resolves a shipping rate by longest postal-prefix match.
type ShippingCalculator interface {
	Rate(ctx context.Context, countryCode, postalCode string) (decimal.Decimal, error)
}
