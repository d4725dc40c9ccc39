package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pedalcraft/commerce-backend/internal/core/domain/shipping"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	"github.com/pedalcraft/commerce-backend/internal/infrastructure/db"
)

// ShippingRepository loads shipping zones from Postgres.
type ShippingRepository struct {
	db *db.Database
}

func NewShippingRepository(database *db.Database) ports.ShippingRepository {
	return &ShippingRepository{db: database}
}

// ListZones returns all zones for a country with their postal prefixes.
func (r *ShippingRepository) ListZones(ctx context.Context, countryCode string) ([]*shipping.Zone, error) {
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT z.id, z.name, z.country_code, z.rate, COALESCE(p.prefix, '')
		FROM shipping_zones z
		LEFT JOIN shipping_zone_prefixes p ON p.zone_id = z.id
		WHERE UPPER(z.country_code) = UPPER($1)
		ORDER BY z.id`, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipping zones: %w", err)
	}
	defer rows.Close()

	zones := map[uuid.UUID]*shipping.Zone{}
	var order []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var name, country, prefix string
		var z shipping.Zone
		if err := rows.Scan(&id, &name, &country, &z.Rate, &prefix); err != nil {
			return nil, fmt.Errorf("failed to scan shipping zone: %w", err)
		}
		zone, ok := zones[id]
		if !ok {
			zone = &shipping.Zone{ID: id, Name: name, CountryCode: country, Rate: z.Rate}
			zones[id] = zone
			order = append(order, id)
		}
		zone.PostalPrefixes = append(zone.PostalPrefixes, prefix)
	}
	result := make([]*shipping.Zone, 0, len(order))
	for _, id := range order {
		result = append(result, zones[id])
	}
	return result, rows.Err()
}
