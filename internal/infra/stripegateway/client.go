package stripegateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"github.com/stripe/stripe-go/v75/webhook"
)

// TipCheckout describes a one-off tip charge. Amount is in minor currency
// units (cents). Message is optional and already sanitized by the caller.
type TipCheckout struct {
	AmountMinorUnits int64
	ServiceName      string
	Message          string
	Metadata         map[string]string
}

// SubscriptionSnapshot is the authoritative view of a subscription,
// re-fetched by id before any ledger write.
type SubscriptionSnapshot struct {
	ID               string
	Status           string
	PriceID          string
	CurrentPeriodEnd time.Time
	Metadata         map[string]string
}

// Gateway is the narrow surface the orchestrators and the reconciler talk
// to. Tests substitute a fake; production uses Client below.
type Gateway interface {
	CreateTipCheckout(ctx context.Context, in TipCheckout) (string, error)
	CreateSubscriptionCheckout(ctx context.Context, priceID string, metadata map[string]string) (string, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
	CreateConnectedAccount(ctx context.Context, email, idempotencyKey string, metadata map[string]string) (string, error)
	CreateAccountOnboardingLink(ctx context.Context, accountID string) (string, error)
}

// Client issues all direct calls to Stripe. The API key lives on the injected
// client.API, not in the SDK's package globals, and every request goes out
// through an HTTP client with a hard timeout.
type Client struct {
	api         *client.API
	frontendURL string
}

const requestTimeout = 15 * time.Second

func New(secretKey, frontendURL string) *Client {
	api := &client.API{}
	api.Init(secretKey, stripe.NewBackends(&http.Client{Timeout: requestTimeout}))
	return &Client{api: api, frontendURL: frontendURL}
}

func (c *Client) CreateTipCheckout(ctx context.Context, in TipCheckout) (string, error) {
	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(fmt.Sprintf("Pourboire - Service: %s", in.ServiceName)),
	}
	if in.Message != "" {
		productData.Description = stripe.String(in.Message)
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: in.Metadata,
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(string(stripe.CurrencyEUR)),
					ProductData: productData,
					UnitAmount:  stripe.Int64(in.AmountMinorUnits),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.frontendURL + "/tip-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.frontendURL + "/tip-cancel"),
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", classify(err)
	}
	return s.URL, nil
}

func (c *Client) CreateSubscriptionCheckout(ctx context.Context, priceID string, metadata map[string]string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: metadata,
		},
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		// The webhook reconciler correlates through subscription metadata, so
		// it must be present on the subscription itself, not just the session.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		SuccessURL: stripe.String(c.frontendURL + "/subscribe-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.frontendURL + "/subscribe-cancel"),
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", classify(err)
	}
	return s.URL, nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	sub, err := c.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, classify(err)
	}

	snapshot := &SubscriptionSnapshot{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
		Metadata:         sub.Metadata,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		snapshot.PriceID = sub.Items.Data[0].Price.ID
	}
	return snapshot, nil
}

func (c *Client) CreateConnectedAccount(ctx context.Context, email, idempotencyKey string, metadata map[string]string) (string, error) {
	params := &stripe.AccountParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(idempotencyKey),
			Metadata:       metadata,
		},
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}

	acct, err := c.api.Accounts.New(params)
	if err != nil {
		return "", classify(err)
	}
	return acct.ID, nil
}

func (c *Client) CreateAccountOnboardingLink(ctx context.Context, accountID string) (string, error) {
	link, err := c.api.AccountLinks.New(&stripe.AccountLinkParams{
		Params:     stripe.Params{Context: ctx},
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(c.frontendURL + "/dashboard?stripe=refresh"),
		ReturnURL:  stripe.String(c.frontendURL + "/dashboard?stripe=connected"),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return "", classify(err)
	}
	return link.URL, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// request body. CPU-only; the bytes must be the unparsed body, a re-encoded
// JSON document would not match the HMAC.
func VerifyWebhookSignature(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		sigHeader,
		secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}
