package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/coffeemorning/cmc-backend/pkg/config"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
	errLoggerRequired   = errors.New("stripe logger is required")
)

// declineMessages translates processor decline codes into the short reasons
// surfaced to donors and organizers.
var declineMessages = map[string]string{
	"card_declined":      "declined",
	"expired_card":       "expired",
	"incorrect_cvc":      "bad security code",
	"insufficient_funds": "declined",
	"processing_error":   "processing error",
}

// Client exposes Stripe primitives with centralized auth, logging,
// idempotency, and error mapping.
type Client struct {
	api           *stripe.Client
	environment   string
	currency      string
	signingSecret string
	logger        *logger.Logger
}

// NewClient initializes Stripe once with the configured secrets and env.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	signingSecret := strings.TrimSpace(cfg.WebhookSecret)
	if signingSecret == "" {
		return nil, errSecretRequired
	}

	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	api := stripe.NewClient(apiKey)
	stripe.Key = apiKey

	logg.Info(ctx, fmt.Sprintf("stripe client initialized (%s)", env))

	return &Client{
		api:           api,
		environment:   env,
		currency:      strings.ToLower(strings.TrimSpace(cfg.Currency)),
		signingSecret: signingSecret,
		logger:        logg,
	}, nil
}

// API returns the underlying Stripe API client.
func (c *Client) API() *stripe.Client {
	if c == nil {
		return nil
	}
	return c.api
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Currency returns the configured charge currency.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return "eur"
	}
	return c.currency
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// NewIdempotencyKey returns a unique key for Stripe operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "cmc"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreatePaymentIntent opens a payment with the processor and returns the
// intent carrying the client secret for browser confirmation.
func (c *Client) CreatePaymentIntent(ctx context.Context, params IntentParams) (*stripe.PaymentIntent, error) {
	req := params.toStripeParams(c.Currency(), c.ensureIdempotencyKey("intent.create", params.IdempotencyKey))
	req.Context = ctx
	c.log(ctx, "request", "create_payment_intent", map[string]any{
		"amount":        params.AmountMinor,
		"currency":      c.Currency(),
		"purpose":       params.Purpose,
		"campaign_id":   params.CampaignID,
		"receipt_email": params.ReceiptEmail,
	})

	intent, err := paymentintent.New(req)
	if err != nil {
		c.log(ctx, "error", "create_payment_intent", map[string]any{"error": err.Error()})
		return nil, c.mapStripeError(err, "create payment intent")
	}

	c.log(ctx, "response", "create_payment_intent", map[string]any{
		"intent_id": intent.ID,
		"status":    string(intent.Status),
	})
	return intent, nil
}

// GetPaymentIntent fetches the current state of an intent.
func (c *Client) GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error) {
	req := &stripe.PaymentIntentParams{}
	req.Context = ctx
	c.log(ctx, "request", "get_payment_intent", map[string]any{"intent_id": intentID})

	intent, err := paymentintent.Get(intentID, req)
	if err != nil {
		c.log(ctx, "error", "get_payment_intent", map[string]any{"error": err.Error()})
		return nil, c.mapStripeError(err, "get payment intent")
	}

	c.log(ctx, "response", "get_payment_intent", map[string]any{
		"intent_id": intent.ID,
		"status":    string(intent.Status),
	})
	return intent, nil
}

// CreatePaymentLink opens a hosted checkout session for an out-of-band
// payment and returns the session carrying the shareable URL.
func (c *Client) CreatePaymentLink(ctx context.Context, params LinkParams) (*stripe.CheckoutSession, error) {
	req := params.toStripeParams(c.Currency(), c.ensureIdempotencyKey("link.create", params.IdempotencyKey))
	req.Context = ctx
	c.log(ctx, "request", "create_payment_link", map[string]any{
		"amount":      params.AmountMinor,
		"currency":    c.Currency(),
		"purpose":     params.Purpose,
		"campaign_id": params.CampaignID,
	})

	sess, err := checkoutsession.New(req)
	if err != nil {
		c.log(ctx, "error", "create_payment_link", map[string]any{"error": err.Error()})
		return nil, c.mapStripeError(err, "create payment link")
	}

	c.log(ctx, "response", "create_payment_link", map[string]any{
		"session_id": sess.ID,
		"status":     string(sess.Status),
	})
	return sess, nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("stripe %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("stripe %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapStripeError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *stripe.Error
	if errors.As(err, &apiErr) {
		if apiErr.Type == stripe.ErrorTypeCard {
			wrapped := pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("stripe %s failed", op))
			if msg := DeclineMessage(string(apiErr.DeclineCode)); msg != "" {
				return wrapped.WithDetails(map[string]any{"reason": msg})
			}
			return wrapped
		}
		code := domainCodeForStatus(apiErr.HTTPStatusCode)
		if apiErr.Code == stripe.ErrorCodeIdempotencyKeyInUse {
			code = pkgerrors.CodeIdempotency
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("stripe %s failed", op))
}

// DeclineMessage translates a processor decline code into the short reason
// shown to the payer. Unknown codes return an empty string.
func DeclineMessage(declineCode string) string {
	return declineMessages[strings.TrimSpace(strings.ToLower(declineCode))]
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeGateway
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
