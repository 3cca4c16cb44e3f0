package enums

// Currency is the ISO currency code used with the payment processor.
// The platform charges in euro; amounts are always integer minor units.
type Currency string

const CurrencyEUR Currency = "eur"

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}
