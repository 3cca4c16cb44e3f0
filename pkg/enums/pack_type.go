package enums

import "fmt"

// PackType identifies the starter pack an organizer orders with a campaign.
type PackType string

const (
	PackTypeFree   PackType = "free"
	PackTypeMedium PackType = "medium"
	PackTypeLarge  PackType = "large"
)

var validPackTypes = []PackType{
	PackTypeFree,
	PackTypeMedium,
	PackTypeLarge,
}

// MaxGarmentSlots is the number of garment size selections a pack can carry.
const MaxGarmentSlots = 4

// String implements fmt.Stringer.
func (p PackType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PackType.
func (p PackType) IsValid() bool {
	for _, candidate := range validPackTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// IncludesGarments reports whether the pack ships with garments, which
// require size selections on the order.
func (p PackType) IncludesGarments() bool {
	switch p {
	case PackTypeMedium, PackTypeLarge:
		return true
	default:
		return false
	}
}

// ParsePackType converts raw input into a PackType.
func ParsePackType(value string) (PackType, error) {
	for _, candidate := range validPackTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pack type %q", value)
}
