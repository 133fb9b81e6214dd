package repository

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-purchases/app/entity"
)

// ErrCoursePaymentAlreadyExists means this payment reference was already
// applied toward a course; re-applying is a no-op for callers.
var ErrCoursePaymentAlreadyExists = errors.New("course payment already exists")

type CoursePaymentRepository struct {
	db DBTX
}

func NewCoursePaymentRepository(db DBTX) *CoursePaymentRepository {
	return &CoursePaymentRepository{db: db}
}

func (r *CoursePaymentRepository) Create(ctx context.Context, payment *entity.CoursePayment) error {
	query := `
		INSERT INTO course_payments (
			account_id, project_id, payment_ref, amount, paid_by_non_owner, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.AccountID,
		payment.ProjectID,
		payment.PaymentRef,
		payment.Amount.StringFixed(2),
		payment.PaidByNonOwner,
		payment.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCoursePaymentAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	payment.ID = uint64(id)

	return nil
}
