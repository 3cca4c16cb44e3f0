package stripe

import (
	"testing"

	"github.com/stripe/stripe-go/v84"
)

func TestDeclineMessage(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"card_declined", "declined"},
		{"insufficient_funds", "declined"},
		{"expired_card", "expired"},
		{"incorrect_cvc", "bad security code"},
		{"processing_error", "processing error"},
		{"  Card_Declined  ", "declined"},
		{"something_new", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DeclineMessage(tc.code); got != tc.want {
			t.Fatalf("DeclineMessage(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestIntentParamsMetadata(t *testing.T) {
	params := IntentParams{
		AmountMinor:  5000,
		Purpose:      PurposePackOrder,
		CampaignID:   "c-1",
		PackOrderID:  "o-1",
		ReceiptEmail: "mary@example.com",
		Metadata:     map[string]string{"donor_name": "Mary"},
	}.toStripeParams("eur", "key-1")

	if *params.Amount != 5000 || *params.Currency != "eur" {
		t.Fatalf("amount or currency wrong: %v %v", *params.Amount, *params.Currency)
	}
	if params.Metadata[MetadataPurposeKey] != PurposePackOrder {
		t.Fatalf("purpose metadata missing: %v", params.Metadata)
	}
	if params.Metadata[MetadataCampaignKey] != "c-1" || params.Metadata[MetadataOrderKey] != "o-1" {
		t.Fatalf("ids missing from metadata: %v", params.Metadata)
	}
	if params.Metadata["donor_name"] != "Mary" {
		t.Fatalf("extra metadata dropped: %v", params.Metadata)
	}
	if params.ReceiptEmail == nil || *params.ReceiptEmail != "mary@example.com" {
		t.Fatal("receipt email not set")
	}
}

func TestLinkParamsBuildsSingleLineItem(t *testing.T) {
	params := LinkParams{
		AmountMinor: 9000,
		Purpose:     PurposePackOrder,
		ProductName: "Coffee Morning large pack",
		SuccessURL:  "https://example.com/ok",
		CancelURL:   "https://example.com/no",
	}.toStripeParams("eur", "key-2")

	if *params.Mode != string(stripe.CheckoutSessionModePayment) {
		t.Fatalf("mode wrong: %s", *params.Mode)
	}
	if len(params.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(params.LineItems))
	}
	item := params.LineItems[0]
	if *item.PriceData.UnitAmount != 9000 || *item.Quantity != 1 {
		t.Fatalf("line item wrong: %+v", item)
	}
	if *item.PriceData.ProductData.Name != "Coffee Morning large pack" {
		t.Fatalf("product name wrong: %s", *item.PriceData.ProductData.Name)
	}
	if params.Metadata[MetadataPurposeKey] != PurposePackOrder {
		t.Fatalf("purpose metadata missing: %v", params.Metadata)
	}
}
