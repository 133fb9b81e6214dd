package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/factory"
	"github.com/vibast-solutions/ms-go-purchases/app/provider"
	"github.com/vibast-solutions/ms-go-purchases/config"
)

type accountRepository interface {
	FindByID(ctx context.Context, accountID string) (*entity.Account, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.Account, error)
	SetStripeCustomerID(ctx context.Context, accountID, customerID string) error
}

type ledgerService interface {
	CreateCredit(ctx context.Context, accountID, invoiceID string, amount decimal.Decimal, description entity.CreditDescription, serviceTag string) (uint64, error)
	FulfillCartItems(ctx context.Context, accountID, paymentRef string, amount decimal.Decimal, itemIDs []uint64) error
	ApplyCoursePayment(ctx context.Context, accountID, projectID, paymentRef string, amount decimal.Decimal, allowNonOwner bool) error
	ListCredits(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error)
}

// PurchaseService owns the checkout session flow and the reconciliation of
// succeeded payment intents into ledger credits. It holds no locks around
// processing: any number of processes may reconcile the same intent
// concurrently, and correctness rests on the ledger's unique invoice_id
// constraint alone.
type PurchaseService struct {
	providerClient provider.Client
	accountRepo    accountRepository
	ledger         ledgerService
	settings       *SettingsCache
	purchasesCfg   config.PurchasesConfig

	sessionCalls inflightGroup
	logger       logrus.FieldLogger
}

func NewPurchaseService(
	providerClient provider.Client,
	accountRepo accountRepository,
	ledger ledgerService,
	settings *SettingsCache,
	purchasesCfg config.PurchasesConfig,
) *PurchaseService {
	if settings == nil {
		settings = NewSettingsCache(StaticSettings(Settings{
			MinPayment: decimal.NewFromFloat(purchasesCfg.MinPaymentUSD),
		}), purchasesCfg.SettingsTTL)
	}

	return &PurchaseService{
		providerClient: providerClient,
		accountRepo:    accountRepo,
		ledger:         ledger,
		settings:       settings,
		purchasesCfg:   purchasesCfg,
		logger:         factory.NewModuleLogger("purchases-service"),
	}
}

// stripeCustomerID resolves the provider customer for an account, creating
// one when create is set. Returns "" when the account has no customer yet
// and create is false.
func (s *PurchaseService) stripeCustomerID(ctx context.Context, accountID string, create bool) (string, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", ErrAccountNotFound
	}
	if account.StripeCustomerID != nil && *account.StripeCustomerID != "" {
		return *account.StripeCustomerID, nil
	}
	if !create {
		return "", nil
	}

	name := strings.TrimSpace(account.FirstName + " " + account.LastName)
	customerID, err := s.providerClient.CreateCustomer(ctx, provider.CustomerParams{
		AccountID: account.ID,
		Name:      name,
		Email:     account.Email,
	})
	if err != nil {
		return "", err
	}

	if err := s.accountRepo.SetStripeCustomerID(ctx, account.ID, customerID); err != nil {
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"customer":   customerID,
	}).Info("Created provider customer")

	return customerID, nil
}

// ListCredits returns the account's newest ledger credits.
func (s *PurchaseService) ListCredits(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return s.ledger.ListCredits(ctx, accountID, limit)
}

func (s *PurchaseService) globalScanLimit() int32 {
	if s.purchasesCfg.GlobalScanLimit > 0 {
		return s.purchasesCfg.GlobalScanLimit
	}
	return 10
}

func (s *PurchaseService) customerSearchLimit() int32 {
	if s.purchasesCfg.CustomerSearchLimit > 0 {
		return s.purchasesCfg.CustomerSearchLimit
	}
	return 100
}
