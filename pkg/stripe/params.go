package stripe

import (
	"github.com/stripe/stripe-go/v84"
)

// Payment purposes recorded in processor metadata so webhook handlers can
// route events without guessing.
const (
	PurposeDonation  = "donation"
	PurposePackOrder = "pack_order"

	MetadataPurposeKey  = "purpose"
	MetadataCampaignKey = "campaign_id"
	MetadataOrderKey    = "pack_order_id"
)

// IntentParams describes a direct payment opened from the site.
type IntentParams struct {
	AmountMinor    int64
	Purpose        string
	CampaignID     string
	PackOrderID    string
	Description    string
	ReceiptEmail   string
	Metadata       map[string]string
	IdempotencyKey string
}

func (p IntentParams) toStripeParams(currency, idempotencyKey string) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.AmountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	params.AddMetadata(MetadataPurposeKey, p.Purpose)
	if p.CampaignID != "" {
		params.AddMetadata(MetadataCampaignKey, p.CampaignID)
	}
	if p.PackOrderID != "" {
		params.AddMetadata(MetadataOrderKey, p.PackOrderID)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(idempotencyKey)
	return params
}

// LinkParams describes a hosted checkout opened out of band, typically sent
// by an admin to an organizer whose pack payment failed.
type LinkParams struct {
	AmountMinor    int64
	Purpose        string
	CampaignID     string
	PackOrderID    string
	ProductName    string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

func (p LinkParams) toStripeParams(currency, idempotencyKey string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(p.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
			},
		},
	}
	if p.SuccessURL != "" {
		params.SuccessURL = stripe.String(p.SuccessURL)
	}
	if p.CancelURL != "" {
		params.CancelURL = stripe.String(p.CancelURL)
	}
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	params.AddMetadata(MetadataPurposeKey, p.Purpose)
	if p.CampaignID != "" {
		params.AddMetadata(MetadataCampaignKey, p.CampaignID)
	}
	if p.PackOrderID != "" {
		params.AddMetadata(MetadataOrderKey, p.PackOrderID)
	}
	params.SetIdempotencyKey(idempotencyKey)
	return params
}
