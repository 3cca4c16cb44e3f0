package types

import "strings"

// ShippingAddress is the structured delivery address captured with a pack
// order. Stored as jsonb; County follows Irish addressing.
type ShippingAddress struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	County     string  `json:"county"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// MissingFields lists the required fields that are blank.
func (a ShippingAddress) MissingFields() []string {
	missing := []string{}
	check := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	check("name", a.Name)
	check("line1", a.Line1)
	check("city", a.City)
	check("county", a.County)
	check("postal_code", a.PostalCode)
	check("country", a.Country)
	return missing
}
