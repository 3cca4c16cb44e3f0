package enums

import "fmt"

// TemplateType keys the email templates the dispatcher can render.
type TemplateType string

const (
	TemplateDonationReceipt  TemplateType = "donation_receipt"
	TemplatePackOrdered      TemplateType = "pack_ordered"
	TemplateCampaignApproved TemplateType = "campaign_approved"
	TemplatePaymentLink      TemplateType = "payment_link"
)

var validTemplateTypes = []TemplateType{
	TemplateDonationReceipt,
	TemplatePackOrdered,
	TemplateCampaignApproved,
	TemplatePaymentLink,
}

// String implements fmt.Stringer.
func (t TemplateType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TemplateType.
func (t TemplateType) IsValid() bool {
	for _, candidate := range validTemplateTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTemplateType converts raw input into a TemplateType.
func ParseTemplateType(value string) (TemplateType, error) {
	for _, candidate := range validTemplateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid template type %q", value)
}
