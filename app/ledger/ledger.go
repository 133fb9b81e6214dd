package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-purchases/app/entity"
	"github.com/vibast-solutions/ms-go-purchases/app/factory"
	"github.com/vibast-solutions/ms-go-purchases/app/repository"
)

var (
	ErrInvalidCreditAmount = errors.New("credit amount must be positive")

	// ErrInsufficientCredit means the cart items cost more than the credited
	// amount; the user keeps the credit and can retry the purchase.
	ErrInsufficientCredit = errors.New("credited amount does not cover cart items")
)

type creditRepository interface {
	Create(ctx context.Context, credit *entity.Credit) error
	FindByInvoiceID(ctx context.Context, invoiceID string) (*entity.Credit, error)
	ListForAccount(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error)
}

type cartRepository interface {
	ListCheckedOut(ctx context.Context, accountID string, ids []uint64) ([]*entity.CartItem, error)
	MarkPurchased(ctx context.Context, ids []uint64, paymentRef string, now time.Time) error
}

type coursePaymentRepository interface {
	Create(ctx context.Context, payment *entity.CoursePayment) error
}

type creditEventRepository interface {
	Create(ctx context.Context, event *entity.CreditEvent) error
}

// Service is the internal ledger. CreateCredit is the idempotency boundary
// for payment reconciliation: the unique index on credits.invoice_id
// guarantees at most one credit per provider payment, no matter how many
// processes attempt it concurrently.
type Service struct {
	creditRepo creditRepository
	cartRepo   cartRepository
	courseRepo coursePaymentRepository
	eventRepo  creditEventRepository
	logger     logrus.FieldLogger
}

func NewService(
	creditRepo creditRepository,
	cartRepo cartRepository,
	courseRepo coursePaymentRepository,
	eventRepo creditEventRepository,
) *Service {
	return &Service{
		creditRepo: creditRepo,
		cartRepo:   cartRepo,
		courseRepo: courseRepo,
		eventRepo:  eventRepo,
		logger:     factory.NewModuleLogger("ledger"),
	}
}

// CreateCredit records a ledger credit for the given provider invoice. Safe
// to call any number of times with the same invoiceID: losers of the
// check-and-insert race get the pre-existing credit's id back, not an error.
func (s *Service) CreateCredit(
	ctx context.Context,
	accountID string,
	invoiceID string,
	amount decimal.Decimal,
	description entity.CreditDescription,
	serviceTag string,
) (uint64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidCreditAmount
	}
	if serviceTag == "" {
		serviceTag = entity.ServiceCredit
	}

	now := time.Now().UTC()
	credit := &entity.Credit{
		AccountID:   accountID,
		InvoiceID:   invoiceID,
		Amount:      amount,
		Description: description,
		Service:     serviceTag,
		CreatedAt:   now,
	}

	err := s.creditRepo.Create(ctx, credit)
	if errors.Is(err, repository.ErrCreditAlreadyExists) {
		existing, findErr := s.creditRepo.FindByInvoiceID(ctx, invoiceID)
		if findErr != nil {
			return 0, findErr
		}
		if existing == nil {
			return 0, err
		}
		s.logger.WithFields(logrus.Fields{
			"invoice_id": invoiceID,
			"credit_id":  existing.ID,
		}).Info("Credit already recorded for invoice")
		return existing.ID, nil
	}
	if err != nil {
		return 0, err
	}

	_ = s.eventRepo.Create(ctx, &entity.CreditEvent{
		CreditID:  credit.ID,
		EventType: "credit_created",
		IntentID:  &invoiceID,
		CreatedAt: now,
	})

	return credit.ID, nil
}

// ListCredits returns the newest credits for an account.
func (s *Service) ListCredits(ctx context.Context, accountID string, limit int32) ([]*entity.Credit, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.creditRepo.ListForAccount(ctx, accountID, limit)
}

// FulfillCartItems provisions the cart items the payment was for. Items
// already purchased (e.g. by a previous partially-failed pass) are skipped,
// so retries are safe.
func (s *Service) FulfillCartItems(
	ctx context.Context,
	accountID string,
	paymentRef string,
	amount decimal.Decimal,
	itemIDs []uint64,
) error {
	items, err := s.cartRepo.ListCheckedOut(ctx, accountID, itemIDs)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	total := decimal.Zero
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		total = total.Add(item.Amount)
		ids = append(ids, item.ID)
	}
	if total.GreaterThan(amount) {
		return ErrInsufficientCredit
	}

	return s.cartRepo.MarkPurchased(ctx, ids, paymentRef, time.Now().UTC())
}

// ApplyCoursePayment applies a student payment toward a course project. The
// unique payment reference makes duplicate application a no-op.
func (s *Service) ApplyCoursePayment(
	ctx context.Context,
	accountID string,
	projectID string,
	paymentRef string,
	amount decimal.Decimal,
	allowNonOwner bool,
) error {
	err := s.courseRepo.Create(ctx, &entity.CoursePayment{
		AccountID:      accountID,
		ProjectID:      projectID,
		PaymentRef:     paymentRef,
		Amount:         amount,
		PaidByNonOwner: allowNonOwner,
		CreatedAt:      time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrCoursePaymentAlreadyExists) {
		s.logger.WithFields(logrus.Fields{
			"project_id":  projectID,
			"payment_ref": paymentRef,
		}).Info("Course payment already applied")
		return nil
	}
	return err
}
