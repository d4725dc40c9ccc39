package shipping

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Zone maps postal-code prefixes within a country to a flat shipping rate.
// The longest matching prefix wins; an empty prefix acts as the country default.
type Zone struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	CountryCode    string          `json:"country_code" db:"country_code"`
	PostalPrefixes []string        `json:"postal_prefixes"`
	Rate           decimal.Decimal `json:"rate" db:"rate"`
}

// Matches returns the length of the longest prefix of postalCode covered by the
// zone, or -1 when the zone does not apply.
func (z *Zone) Matches(countryCode, postalCode string) int {
	if !strings.EqualFold(z.CountryCode, countryCode) {
		return -1
	}
	best := -1
	for _, p := range z.PostalPrefixes {
		if strings.HasPrefix(postalCode, p) && len(p) > best {
			best = len(p)
		}
	}
	return best
}
