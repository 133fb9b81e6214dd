package provider

import "context"

const (
	IntentStatusSucceeded = "succeeded"

	SessionStatusOpen    = "open"
	SessionStatusExpired = "expired"
)

type CustomerParams struct {
	AccountID string
	Name      string
	Email     string
}

type SessionLineItem struct {
	Description string
	AmountCents int64
}

type CheckoutSessionParams struct {
	CustomerID  string
	Description string
	LineItems   []SessionLineItem
	ReturnURL   string

	// Metadata is attached to the session, its payment intent, and the
	// invoice the provider creates for it. The payment intent copy
	// additionally carries confirm=true.
	Metadata map[string]string

	// IdempotencyKey guards against double session creation on retried
	// requests.
	IdempotencyKey string
}

type CheckoutSession struct {
	ID           string
	ClientSecret string
	Status       string
	CustomerID   string
	Metadata     map[string]string
}

// PaymentIntent is the provider-side record of one attempted charge. It is
// observed, never created, by this service.
type PaymentIntent struct {
	ID          string
	Status      string
	CustomerID  string
	InvoiceID   string
	Description string
	Metadata    map[string]string
}

type InvoiceLine struct {
	Description string
	AmountCents int64
}

type Invoice struct {
	ID       string
	Lines    []InvoiceLine
	TaxCents int64
}

// Client is the payment provider surface the purchase service depends on.
type Client interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	ListOpenCheckoutSessions(ctx context.Context, customerID string) ([]*CheckoutSession, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, sessionID string) error
	ListPaymentIntents(ctx context.Context, customerID string) ([]*PaymentIntent, error)
	SearchPaymentIntents(ctx context.Context, query string, limit int32) ([]*PaymentIntent, error)
	UpdatePaymentIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error
	RetrieveInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}
