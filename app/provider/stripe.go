package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type StripeConfig struct {
	SecretKey   string
	HTTPTimeout time.Duration
}

type StripeClient struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeClient(cfg StripeConfig) *StripeClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &StripeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// CustomerUnprocessedQuery matches succeeded, purpose-tagged intents of one
// customer that have not been marked processed. The search index lags the
// live listing by a minute or two, so callers merge this with
// ListPaymentIntents rather than relying on it alone.
func CustomerUnprocessedQuery(customerID string) string {
	return fmt.Sprintf(`customer:"%s" AND status:"succeeded" AND -metadata["processed"]:"true" -metadata["purpose"]:null`, customerID)
}

// UnprocessedQuery is the cross-customer variant used by the maintenance
// sweep.
func UnprocessedQuery() string {
	return `status:"succeeded" AND -metadata["processed"]:"true" AND -metadata["purpose"]:null`
}

func (c *StripeClient) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	values := url.Values{}
	values.Set("name", strings.TrimSpace(params.Name))
	values.Set("description", strings.TrimSpace(params.Name))
	values.Set("email", strings.TrimSpace(params.Email))
	values.Set("metadata[account_id]", params.AccountID)

	body, err := c.postForm(ctx, "/v1/customers", values, "")
	if err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	customerID := strings.TrimSpace(payload.ID)
	if customerID == "" {
		return "", errors.New("stripe customer id missing")
	}
	return customerID, nil
}

func (c *StripeClient) ListOpenCheckoutSessions(ctx context.Context, customerID string) ([]*CheckoutSession, error) {
	query := url.Values{}
	query.Set("status", SessionStatusOpen)
	query.Set("customer", customerID)

	body, err := c.get(ctx, "/v1/checkout/sessions", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []sessionPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	sessions := make([]*CheckoutSession, 0, len(payload.Data))
	for _, item := range payload.Data {
		sessions = append(sessions, item.toSession())
	}
	return sessions, nil
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("customer", params.CustomerID)
	values.Set("ui_mode", "embedded")
	values.Set("mode", "payment")
	values.Set("return_url", params.ReturnURL)
	values.Set("redirect_on_completion", "if_required")
	values.Set("automatic_tax[enabled]", "true")
	values.Set("invoice_creation[enabled]", "true")
	values.Set("tax_id_collection[enabled]", "true")
	values.Set("customer_update[address]", "auto")
	values.Set("customer_update[name]", "auto")

	for i, item := range params.LineItems {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		values.Set(prefix+"[quantity]", "1")
		values.Set(prefix+"[price_data][currency]", "usd")
		values.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		values.Set(prefix+"[price_data][product_data][name]", item.Description)
	}

	for k, v := range params.Metadata {
		values.Set("metadata["+k+"]", v)
		values.Set("payment_intent_data[metadata]["+k+"]", v)
		values.Set("invoice_creation[invoice_data][metadata]["+k+"]", v)
	}
	values.Set("payment_intent_data[metadata][confirm]", "true")
	values.Set("payment_intent_data[description]", params.Description)
	values.Set("payment_intent_data[setup_future_usage]", "off_session")

	if accountID := params.Metadata["account_id"]; accountID != "" {
		values.Set("client_reference_id", accountID)
	}

	body, err := c.postForm(ctx, "/v1/checkout/sessions", values, params.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	session := payload.toSession()
	if session.ClientSecret == "" {
		return nil, errors.New("stripe checkout session has no client secret")
	}
	return session, nil
}

func (c *StripeClient) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	_, err := c.postForm(ctx, "/v1/checkout/sessions/"+url.PathEscape(sessionID)+"/expire", url.Values{}, "")
	return err
}

func (c *StripeClient) ListPaymentIntents(ctx context.Context, customerID string) ([]*PaymentIntent, error) {
	query := url.Values{}
	query.Set("customer", customerID)

	body, err := c.get(ctx, "/v1/payment_intents", query)
	if err != nil {
		return nil, err
	}
	return parseIntentList(body)
}

func (c *StripeClient) SearchPaymentIntents(ctx context.Context, searchQuery string, limit int32) ([]*PaymentIntent, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{}
	query.Set("query", searchQuery)
	query.Set("limit", strconv.FormatInt(int64(limit), 10))

	body, err := c.get(ctx, "/v1/payment_intents/search", query)
	if err != nil {
		return nil, err
	}
	return parseIntentList(body)
}

func (c *StripeClient) UpdatePaymentIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	values := url.Values{}
	for k, v := range metadata {
		values.Set("metadata["+k+"]", v)
	}

	_, err := c.postForm(ctx, "/v1/payment_intents/"+url.PathEscape(intentID), values, "")
	return err
}

func (c *StripeClient) RetrieveInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	body, err := c.get(ctx, "/v1/invoices/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID    string `json:"id"`
		Lines struct {
			Data []struct {
				Description string `json:"description"`
				Amount      int64  `json:"amount"`
			} `json:"data"`
		} `json:"lines"`
		Tax int64 `json:"tax"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	invoice := &Invoice{
		ID:       strings.TrimSpace(payload.ID),
		TaxCents: payload.Tax,
	}
	for _, line := range payload.Lines.Data {
		invoice.Lines = append(invoice.Lines, InvoiceLine{
			Description: line.Description,
			AmountCents: line.Amount,
		})
	}
	return invoice, nil
}

func (c *StripeClient) postForm(ctx context.Context, path string, values url.Values, idempotencyKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.stripe.com"+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return c.do(req, path)
}

func (c *StripeClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := "https://api.stripe.com" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)

	return c.do(req, path)
}

func (c *StripeClient) do(req *http.Request, path string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

type sessionPayload struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Customer     interface{}       `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
}

func (p sessionPayload) toSession() *CheckoutSession {
	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &CheckoutSession{
		ID:           strings.TrimSpace(p.ID),
		ClientSecret: strings.TrimSpace(p.ClientSecret),
		Status:       strings.TrimSpace(p.Status),
		CustomerID:   parseStringish(p.Customer),
		Metadata:     metadata,
	}
}

type intentPayload struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Customer    interface{}       `json:"customer"`
	Invoice     interface{}       `json:"invoice"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

func parseIntentList(body []byte) ([]*PaymentIntent, error) {
	var payload struct {
		Data []intentPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	intents := make([]*PaymentIntent, 0, len(payload.Data))
	for _, item := range payload.Data {
		metadata := item.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		intents = append(intents, &PaymentIntent{
			ID:          strings.TrimSpace(item.ID),
			Status:      strings.TrimSpace(item.Status),
			CustomerID:  parseStringish(item.Customer),
			InvoiceID:   parseStringish(item.Invoice),
			Description: item.Description,
			Metadata:    metadata,
		})
	}
	return intents, nil
}

// parseStringish handles fields the provider returns either as a bare id or
// as an expanded object with an id.
func parseStringish(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		if raw, ok := t["id"]; ok {
			if s, ok := raw.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
