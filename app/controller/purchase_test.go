package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/provider"
	"github.com/vibast-solutions/ms-go-purchases/app/service"
	"github.com/vibast-solutions/ms-go-purchases/app/types"
	"github.com/vibast-solutions/ms-go-purchases/config"
)

type controllerProviderClient struct {
	createCustomerFn       func(ctx context.Context, params provider.CustomerParams) (string, error)
	listOpenSessionsFn     func(ctx context.Context, customerID string) ([]*provider.CheckoutSession, error)
	createSessionFn        func(ctx context.Context, params provider.CheckoutSessionParams) (*provider.CheckoutSession, error)
	expireSessionFn        func(ctx context.Context, sessionID string) error
	listIntentsFn          func(ctx context.Context, customerID string) ([]*provider.PaymentIntent, error)
	searchIntentsFn        func(ctx context.Context, query string, limit int32) ([]*provider.PaymentIntent, error)
	updateIntentMetadataFn func(ctx context.Context, intentID string, metadata map[string]string) error
	retrieveInvoiceFn      func(ctx context.Context, invoiceID string) (*provider.Invoice, error)
}

func (c *controllerProviderClient) CreateCustomer(ctx context.Context, params provider.CustomerParams) (string, error) {
	if c.createCustomerFn != nil {
		return c.createCustomerFn(ctx, params)
	}
	return "cus_1", nil
}

func (c *controllerProviderClient) ListOpenCheckoutSessions(ctx context.Context, customerID string) ([]*provider.CheckoutSession, error) {
	if c.listOpenSessionsFn != nil {
		return c.listOpenSessionsFn(ctx, customerID)
	}
	return nil, nil
}

func (c *controllerProviderClient) CreateCheckoutSession(ctx context.Context, params provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
	if c.createSessionFn != nil {
		return c.createSessionFn(ctx, params)
	}
	return &provider.CheckoutSession{ID: "cs_1", ClientSecret: "secret_1", Status: provider.SessionStatusOpen}, nil
}

func (c *controllerProviderClient) ExpireCheckoutSession(ctx context.Context, sessionID string) error {
	if c.expireSessionFn != nil {
		return c.expireSessionFn(ctx, sessionID)
	}
	return nil
}

func (c *controllerProviderClient) ListPaymentIntents(ctx context.Context, customerID string) ([]*provider.PaymentIntent, error) {
	if c.listIntentsFn != nil {
		return c.listIntentsFn(ctx, customerID)
	}
	return nil, nil
}

func (c *controllerProviderClient) SearchPaymentIntents(ctx context.Context, query string, limit int32) ([]*provider.PaymentIntent, error) {
	if c.searchIntentsFn != nil {
		return c.searchIntentsFn(ctx, query, limit)
	}
	return nil, nil
}

func (c *controllerProviderClient) UpdatePaymentIntentMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	if c.updateIntentMetadataFn != nil {
		return c.updateIntentMetadataFn(ctx, intentID, metadata)
	}
	return nil
}

func (c *controllerProviderClient) RetrieveInvoice(ctx context.Context, invoiceID string) (*provider.Invoice, error) {
	if c.retrieveInvoiceFn != nil {
		return c.retrieveInvoiceFn(ctx, invoiceID)
	}
	return &provider.Invoice{ID: invoiceID}, nil
}

type controllerAccountRepo struct {
	findByIDFn func(ctx context.Context, accountID string) (*entity.Account, error)
}

func (r *controllerAccountRepo) FindByID(ctx context.Context, accountID string) (*entity.Account, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, accountID)
	}
	return nil, nil
}

func (r *controllerAccountRepo) FindByStripeCustomerID(context.Context, string) (*entity.Account, error) {
	return nil, nil
}

func (r *controllerAccountRepo) SetStripeCustomerID(context.Context, string, string) error {
	return nil
}

type controllerLedger struct {
	listCreditsFn func(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error)
}

func (l *controllerLedger) CreateCredit(context.Context, string, string, decimal.Decimal, entity.CreditDescription, string) (uint64, error) {
	return 1, nil
}

func (l *controllerLedger) FulfillCartItems(context.Context, string, string, decimal.Decimal, []uint64) error {
	return nil
}

func (l *controllerLedger) ApplyCoursePayment(context.Context, string, string, string, decimal.Decimal, bool) error {
	return nil
}

func (l *controllerLedger) ListCredits(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error) {
	if l.listCreditsFn != nil {
		return l.listCreditsFn(ctx, accountID, limit)
	}
	return []*entity.Credit{}, nil
}

func linkedTestAccount(accountID, customerID string) *entity.Account {
	return &entity.Account{
		ID:               accountID,
		Email:            "user@example.com",
		StripeCustomerID: &customerID,
	}
}

func newControllerForTest(providerClient *controllerProviderClient, accountRepo *controllerAccountRepo, ledger *controllerLedger) *PurchaseController {
	svc := service.NewPurchaseService(providerClient, accountRepo, ledger, nil, config.PurchasesConfig{
		MinPaymentUSD: 1,
		MaxPaymentUSD: 99999,
	})
	return NewPurchaseController(svc)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ctrl := newControllerForTest(&controllerProviderClient{}, &controllerAccountRepo{}, &controllerLedger{})

	if err := ctrl.Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateCheckoutSessionReturnsClientSecret(t *testing.T) {
	ctrl := newControllerForTest(&controllerProviderClient{}, &controllerAccountRepo{
		findByIDFn: func(_ context.Context, accountID string) (*entity.Account, error) {
			return linkedTestAccount(accountID, "cus_1"), nil
		},
	}, &controllerLedger{})

	e := echo.New()
	body := `{"account_id":"acct-1","purpose":"shopping-cart-checkout","description":"Store purchase","line_items":[{"description":"Item","amount":"5.50"}]}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/sessions", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := ctrl.CreateCheckoutSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.CheckoutSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.ClientSecret != "secret_1" {
		t.Fatalf("unexpected client secret: %q", resp.ClientSecret)
	}
}

func TestCreateCheckoutSessionRejectsMissingPurpose(t *testing.T) {
	ctrl := newControllerForTest(&controllerProviderClient{}, &controllerAccountRepo{}, &controllerLedger{})

	e := echo.New()
	body := `{"account_id":"acct-1","line_items":[{"description":"Item","amount":"5.50"}]}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/sessions", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := ctrl.CreateCheckoutSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateCheckoutSessionUnknownAccount(t *testing.T) {
	ctrl := newControllerForTest(&controllerProviderClient{}, &controllerAccountRepo{}, &controllerLedger{})

	e := echo.New()
	body := `{"account_id":"acct-missing","purpose":"shopping-cart-checkout","line_items":[{"description":"Item","amount":"5.50"}]}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/sessions", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := ctrl.CreateCheckoutSession(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProcessAccountPayments(t *testing.T) {
	providerClient := &controllerProviderClient{
		listIntentsFn: func(context.Context, string) ([]*provider.PaymentIntent, error) {
			return []*provider.PaymentIntent{{
				ID:         "pi_1",
				Status:     provider.IntentStatusSucceeded,
				CustomerID: "cus_1",
				InvoiceID:  "in_1",
				Metadata: map[string]string{
					"purpose":                 "shopping-cart-checkout",
					"account_id":              "acct-1",
					"total_excluding_tax_usd": "550",
				},
			}}, nil
		},
	}
	ctrl := newControllerForTest(providerClient, &controllerAccountRepo{
		findByIDFn: func(_ context.Context, accountID string) (*entity.Account, error) {
			return linkedTestAccount(accountID, "cus_1"), nil
		},
	}, &controllerLedger{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/accounts/acct-1/payments/process", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("account_id")
	ctx.SetParamValues("acct-1")

	if err := ctrl.ProcessAccountPayments(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.ProcessPaymentsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Processed != 1 {
		t.Fatalf("expected 1 processed payment, got %d", resp.Processed)
	}
}

func TestListCredits(t *testing.T) {
	ledger := &controllerLedger{
		listCreditsFn: func(context.Context, string, int32) ([]*entity.Credit, error) {
			return []*entity.Credit{{
				ID:        7,
				AccountID: "acct-1",
				InvoiceID: "pi_1",
				Amount:    decimal.RequireFromString("5.50"),
				Service:   entity.ServiceCredit,
			}}, nil
		},
	}
	ctrl := newControllerForTest(&controllerProviderClient{}, &controllerAccountRepo{
		findByIDFn: func(_ context.Context, accountID string) (*entity.Account, error) {
			return linkedTestAccount(accountID, "cus_1"), nil
		},
	}, ledger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/accounts/acct-1/credits", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("account_id")
	ctx.SetParamValues("acct-1")

	if err := ctrl.ListCredits(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp types.ListCreditsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Credits) != 1 || resp.Credits[0].Amount != "5.50" {
		t.Fatalf("unexpected credits payload: %s", rec.Body.String())
	}
}
