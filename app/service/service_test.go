package service

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/provider"
	"github.com/vibast-solutions/ms-go-purchases/config"
)

type fakeProviderClient struct {
	mu sync.Mutex

	nextCustomerID   string
	createdCustomers []provider.CustomerParams

	openSessions    []*provider.CheckoutSession
	createdSessions []provider.CheckoutSessionParams
	expiredSessions []string
	createSecret    string
	createErr       error

	listedIntents   []*provider.PaymentIntent
	searchedIntents []*provider.PaymentIntent
	searchQueries   []string
	listErr         error
	searchErr       error

	invoices   map[string]*provider.Invoice
	invoiceErr error

	updatedMetadata map[string]map[string]string
	updateErr       error
}

func newFakeProviderClient() *fakeProviderClient {
	return &fakeProviderClient{
		nextCustomerID:  "cus_new",
		createSecret:    "secret_new",
		invoices:        map[string]*provider.Invoice{},
		updatedMetadata: map[string]map[string]string{},
	}
}

func (c *fakeProviderClient) CreateCustomer(_ context.Context, params provider.CustomerParams) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createdCustomers = append(c.createdCustomers, params)
	return c.nextCustomerID, nil
}

func (c *fakeProviderClient) ListOpenCheckoutSessions(context.Context, string) ([]*provider.CheckoutSession, error) {
	return c.openSessions, nil
}

func (c *fakeProviderClient) CreateCheckoutSession(_ context.Context, params provider.CheckoutSessionParams) (*provider.CheckoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.createdSessions = append(c.createdSessions, params)
	return &provider.CheckoutSession{
		ID:           "cs_created",
		ClientSecret: c.createSecret,
		Status:       provider.SessionStatusOpen,
		CustomerID:   params.CustomerID,
		Metadata:     params.Metadata,
	}, nil
}

func (c *fakeProviderClient) ExpireCheckoutSession(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expiredSessions = append(c.expiredSessions, sessionID)
	return nil
}

func (c *fakeProviderClient) ListPaymentIntents(context.Context, string) ([]*provider.PaymentIntent, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.listedIntents, nil
}

func (c *fakeProviderClient) SearchPaymentIntents(_ context.Context, query string, _ int32) ([]*provider.PaymentIntent, error) {
	c.mu.Lock()
	c.searchQueries = append(c.searchQueries, query)
	c.mu.Unlock()
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	return c.searchedIntents, nil
}

func (c *fakeProviderClient) UpdatePaymentIntentMetadata(_ context.Context, intentID string, metadata map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return c.updateErr
	}
	merged := c.updatedMetadata[intentID]
	if merged == nil {
		merged = map[string]string{}
	}
	for k, v := range metadata {
		merged[k] = v
	}
	c.updatedMetadata[intentID] = merged
	return nil
}

func (c *fakeProviderClient) RetrieveInvoice(_ context.Context, invoiceID string) (*provider.Invoice, error) {
	if c.invoiceErr != nil {
		return nil, c.invoiceErr
	}
	if invoice, ok := c.invoices[invoiceID]; ok {
		return invoice, nil
	}
	return &provider.Invoice{ID: invoiceID}, nil
}

type fakeAccountRepo struct {
	accounts map[string]*entity.Account
}

func newFakeAccountRepo(accounts ...*entity.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: map[string]*entity.Account{}}
	for _, account := range accounts {
		copyItem := *account
		repo.accounts[account.ID] = &copyItem
	}
	return repo
}

func (r *fakeAccountRepo) FindByID(_ context.Context, accountID string) (*entity.Account, error) {
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, nil
	}
	copyItem := *account
	return &copyItem, nil
}

func (r *fakeAccountRepo) FindByStripeCustomerID(_ context.Context, customerID string) (*entity.Account, error) {
	for _, account := range r.accounts {
		if account.StripeCustomerID != nil && *account.StripeCustomerID == customerID {
			copyItem := *account
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) SetStripeCustomerID(_ context.Context, accountID, customerID string) error {
	account, ok := r.accounts[accountID]
	if !ok {
		return nil
	}
	account.StripeCustomerID = &customerID
	return nil
}

type creditCall struct {
	accountID   string
	invoiceID   string
	amount      decimal.Decimal
	description entity.CreditDescription
	serviceTag  string
}

type cartCall struct {
	accountID  string
	paymentRef string
	amount     decimal.Decimal
	itemIDs    []uint64
}

type courseCall struct {
	accountID     string
	projectID     string
	paymentRef    string
	amount        decimal.Decimal
	allowNonOwner bool
}

type fakeLedger struct {
	mu sync.Mutex

	creditsByInvoice map[string]uint64
	nextCreditID     uint64
	creditCalls      []creditCall
	createErr        error

	cartCalls  []cartCall
	fulfillErr map[string]error

	courseCalls []courseCall
	courseErr   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{creditsByInvoice: map[string]uint64{}, nextCreditID: 1, fulfillErr: map[string]error{}}
}

func (l *fakeLedger) CreateCredit(_ context.Context, accountID, invoiceID string, amount decimal.Decimal, description entity.CreditDescription, serviceTag string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return 0, l.createErr
	}
	l.creditCalls = append(l.creditCalls, creditCall{accountID, invoiceID, amount, description, serviceTag})
	if id, ok := l.creditsByInvoice[invoiceID]; ok {
		return id, nil
	}
	id := l.nextCreditID
	l.nextCreditID++
	l.creditsByInvoice[invoiceID] = id
	return id, nil
}

func (l *fakeLedger) FulfillCartItems(_ context.Context, accountID, paymentRef string, amount decimal.Decimal, itemIDs []uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cartCalls = append(l.cartCalls, cartCall{accountID, paymentRef, amount, itemIDs})
	return l.fulfillErr[paymentRef]
}

func (l *fakeLedger) ListCredits(_ context.Context, accountID string, limit int32) ([]*entity.Credit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]*entity.Credit, 0)
	for _, call := range l.creditCalls {
		if call.accountID != accountID {
			continue
		}
		result = append(result, &entity.Credit{
			ID:          l.creditsByInvoice[call.invoiceID],
			AccountID:   call.accountID,
			InvoiceID:   call.invoiceID,
			Amount:      call.amount,
			Description: call.description,
			Service:     call.serviceTag,
		})
		if int32(len(result)) == limit {
			break
		}
	}
	return result, nil
}

func (l *fakeLedger) ApplyCoursePayment(_ context.Context, accountID, projectID, paymentRef string, amount decimal.Decimal, allowNonOwner bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.courseCalls = append(l.courseCalls, courseCall{accountID, projectID, paymentRef, amount, allowNonOwner})
	return l.courseErr
}

func testPurchasesConfig() config.PurchasesConfig {
	return config.PurchasesConfig{
		MinPaymentUSD:       1,
		MaxPaymentUSD:       100,
		GlobalScanLimit:     10,
		CustomerSearchLimit: 100,
		ReturnURL:           "https://example.com/store",
	}
}

func newServiceForTest(providerClient *fakeProviderClient, accountRepo *fakeAccountRepo, ledger *fakeLedger) *PurchaseService {
	return NewPurchaseService(providerClient, accountRepo, ledger, nil, testPurchasesConfig())
}

func stringPtr(v string) *string {
	return &v
}

func linkedAccount(accountID, customerID string) *entity.Account {
	return &entity.Account{
		ID:               accountID,
		Email:            strings.ReplaceAll(accountID, "-", ".") + "@example.com",
		FirstName:        "Test",
		LastName:         "User",
		StripeCustomerID: stringPtr(customerID),
	}
}
