package services

import (
	"context"
	"fmt"

	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/shopspring/decimal"
)

// ShippingService resolves a rate by longest postal-prefix match across the
// country's zones. A zone with an empty prefix acts as the country default.
type ShippingService struct {
	repo ports.ShippingRepository
}

func NewShippingService(repo ports.ShippingRepository) ports.ShippingCalculator {
	return &ShippingService{repo: repo}
}

func (s *ShippingService) Rate(ctx context.Context, countryCode, postalCode string) (decimal.Decimal, error) {
	zones, err := s.repo.ListZones(ctx, countryCode)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load shipping zones: %w", err)
	}

	best := -1
	rate := decimal.Zero
	found := false
	for _, zone := range zones {
		if match := zone.Matches(countryCode, postalCode); match > best {
			best = match
			rate = zone.Rate
			found = true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("no shipping zone covers %s %s", countryCode, postalCode)
	}
	return rate, nil
}
